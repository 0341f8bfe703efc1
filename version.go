package networkkit

// Version is the current release of the library.
const Version = "1.0.0"
