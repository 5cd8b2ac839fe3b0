package fixtures

// Version is the engine version suite files are checked against.
const Version = "0.1.0"
