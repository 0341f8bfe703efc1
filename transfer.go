package networkkit

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Progress is a snapshot of a transfer in flight.
type Progress struct {
	// Transferred is the number of bytes moved so far.
	Transferred int64
	// Total is the expected byte count, or 0 when unknown.
	Total int64
}

// Fraction returns completion in [0, 1], or 0 when the total is unknown.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Transferred) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

// ProgressFunc receives transfer progress snapshots. Callbacks run on the
// transfer goroutine and should return quickly.
type ProgressFunc func(Progress)

// progressReader counts bytes as the transport drains the upload body.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	onUpdate ProgressFunc
}

func (pr *progressReader) Read(b []byte) (int, error) {
	n, err := pr.r.Read(b)
	if n > 0 {
		pr.read += int64(n)
		if pr.onUpdate != nil {
			pr.onUpdate(Progress{Transferred: pr.read, Total: pr.total})
		}
	}
	return n, err
}

// progressWriter counts bytes as a download body lands on disk.
type progressWriter struct {
	w        io.Writer
	total    int64
	written  int64
	onUpdate ProgressFunc
}

func (pw *progressWriter) Write(b []byte) (int, error) {
	n, err := pw.w.Write(b)
	if n > 0 {
		pw.written += int64(n)
		if pw.onUpdate != nil {
			pw.onUpdate(Progress{Transferred: pw.written, Total: pw.total})
		}
	}
	return n, err
}

// Upload streams body to the request target in a single attempt, reporting
// progress as bytes are read. Uploads bypass the cache and the retry loop;
// interceptors still adapt the request and observe the outcome. The validated
// response body is returned.
func (p *Pipeline) Upload(ctx context.Context, req *Request, body io.Reader, size int64, onProgress ProgressFunc) ([]byte, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	st, ok := p.transport.(StreamTransport)
	if !ok {
		return nil, &Error{Kind: KindUnknown, Message: "transport does not support streaming uploads", Method: req.Method, URL: req.URL}
	}

	requestID := p.requestID()
	p.logTransfers("starting upload", "requestID", requestID, "url", req.URL, "size", size)

	adapted, err := p.interceptors.adapt(ctx, req.Clone())
	if err != nil {
		p.interceptors.observe(ctx, &Result{Request: req, Err: err, Attempt: 1})
		return nil, decorate(err, req)
	}
	if adapted.Timeout == 0 {
		adapted.Timeout = p.defaultTimeout
	}

	ctx, cancel := withRequestTimeout(ctx, adapted)
	defer cancel()

	pr := &progressReader{r: body, total: size, onUpdate: onProgress}
	raw, err := st.SendStream(ctx, adapted, pr, size)
	if err != nil {
		p.interceptors.observe(ctx, &Result{Request: adapted, Err: err, Attempt: 1})
		return nil, err
	}
	defer func() { _ = raw.Body.Close() }()

	respBody, err := io.ReadAll(raw.Body)
	if err != nil {
		err = translateTransportError(adapted, err)
		p.interceptors.observe(ctx, &Result{Request: adapted, Err: err, Attempt: 1})
		return nil, err
	}

	resp := &Response{StatusCode: raw.StatusCode, Header: raw.Header.Clone(), Body: respBody}
	if err := p.validator.Validate(raw.StatusCode, respBody); err != nil {
		err = decorate(err, adapted)
		p.interceptors.observe(ctx, &Result{Request: adapted, Response: resp, Err: err, Attempt: 1})
		return nil, err
	}
	p.interceptors.observe(ctx, &Result{Request: adapted, Response: resp, Attempt: 1})

	p.metrics.RecordTransfer("upload", pr.read)
	p.logTransfers("upload complete", "requestID", requestID, "bytes", pr.read)
	return respBody, nil
}

// Download fetches the request target in a single attempt, streaming the body
// to a uniquely named file in the configured download directory. It returns
// the path of the written file. Downloads bypass the cache and the retry
// loop.
func (p *Pipeline) Download(ctx context.Context, req *Request, onProgress ProgressFunc) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}

	requestID := p.requestID()
	p.logTransfers("starting download", "requestID", requestID, "url", req.URL)

	adapted, err := p.interceptors.adapt(ctx, req.Clone())
	if err != nil {
		p.interceptors.observe(ctx, &Result{Request: req, Err: err, Attempt: 1})
		return "", decorate(err, req)
	}
	if adapted.Timeout == 0 {
		adapted.Timeout = p.defaultTimeout
	}

	ctx, cancel := withRequestTimeout(ctx, adapted)
	defer cancel()

	raw, err := p.transport.Send(ctx, adapted)
	if err != nil {
		p.interceptors.observe(ctx, &Result{Request: adapted, Err: err, Attempt: 1})
		return "", err
	}
	defer func() { _ = raw.Body.Close() }()

	if err := p.validator.Validate(raw.StatusCode, nil); err != nil {
		err = decorate(err, adapted)
		p.interceptors.observe(ctx, &Result{Request: adapted, Err: err, Attempt: 1})
		return "", err
	}

	path := filepath.Join(p.downloadDir, downloadFilename(adapted.URL))
	file, err := os.Create(path)
	if err != nil {
		err = &Error{Kind: KindUnknown, Message: "creating download file failed", Method: adapted.Method, URL: adapted.URL, Cause: err}
		p.interceptors.observe(ctx, &Result{Request: adapted, Err: err, Attempt: 1})
		return "", err
	}

	pw := &progressWriter{w: file, total: raw.ContentLength, onUpdate: onProgress}
	_, err = io.Copy(pw, raw.Body)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		err = translateTransportError(adapted, err)
		p.interceptors.observe(ctx, &Result{Request: adapted, Err: err, Attempt: 1})
		return "", err
	}

	resp := &Response{StatusCode: raw.StatusCode, Header: raw.Header.Clone()}
	p.interceptors.observe(ctx, &Result{Request: adapted, Response: resp, Attempt: 1})

	p.metrics.RecordTransfer("download", pw.written)
	p.logTransfers("download complete", "requestID", requestID, "path", path, "bytes", pw.written)
	return path, nil
}

// downloadFilename derives a unique local name, keeping the remote file's
// extension when one is present in the URL path.
func downloadFilename(url string) string {
	ext := filepath.Ext(filepath.Base(url))
	if len(ext) > 8 {
		ext = ""
	}
	return uuid.NewString() + ext
}
