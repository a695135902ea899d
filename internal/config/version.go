package config

// Version is the canonical version of degenbots
const Version = "0.3.0"

