package main

import "go.uber.org/zap"

var decoderLog = zap.NewNop()
var reportLog = zap.NewNop()

func enableDebugLogging(l *zap.Logger) {
	decoderLog = l
	reportLog = l
}
