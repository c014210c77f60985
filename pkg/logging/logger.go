package logging

import (
	"log"
	"os"
)

var (
	InfoLogger     *log.Logger
	WarnLogger     *log.Logger
	ErrorLogger    *log.Logger
	SecurityLogger *log.Logger
)

// InitLogging initializes logging
func InitLogging() {
	InfoLogger = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	WarnLogger = log.New(os.Stdout, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	SecurityLogger = log.New(os.Stderr, "SECURITY: ", log.Ldate|log.Ltime|log.LUTC)
}

// Infof logs info level messages
func Infof(format string, v ...interface{}) {
	if InfoLogger != nil {
		InfoLogger.Printf(format, v...)
	}
}

// Warnf logs warning level messages
func Warnf(format string, v ...interface{}) {
	if WarnLogger != nil {
		WarnLogger.Printf(format, v...)
	}
}

// Errorf logs error level messages
func Errorf(format string, v ...interface{}) {
	if ErrorLogger != nil {
		ErrorLogger.Printf(format, v...)
	}
}

// Securityf logs security relevant events such as forged payment confirmations.
func Securityf(format string, v ...interface{}) {
	if SecurityLogger != nil {
		SecurityLogger.Printf(format, v...)
	}
}
