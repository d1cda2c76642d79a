package sortdicom

// Version is the released version of sortdicom.
const Version = "0.3.0"
