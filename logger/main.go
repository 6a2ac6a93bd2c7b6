package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var LogDir = "logs"

var mu sync.Mutex
var loggers = make(map[string]*zap.SugaredLogger)

func createLogger(fileName string) (*zap.SugaredLogger, error) {
	filePath := filepath.Join(LogDir, fileName)

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}

	logFile, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(logFile),
		zap.InfoLevel,
	)

	return zap.New(core, zap.AddCaller()).Sugar(), nil
}

func getLogger(fileName string) (*zap.SugaredLogger, error) {
	mu.Lock()
	defer mu.Unlock()

	if logger, ok := loggers[fileName]; ok {
		return logger, nil
	}

	logger, err := createLogger(fileName)
	if err != nil {
		return nil, err
	}

	loggers[fileName] = logger

	return logger, nil
}

type Logger struct {
	logger  *zap.SugaredLogger
	service string
}

func NewLogger(service string) (*Logger, error) {
	fileName := strings.ToLower(strings.ReplaceAll(service, " ", "_"))

	logger, err := getLogger(fileName + ".log")
	if err != nil {
		return nil, err
	}

	return &Logger{
		logger:  logger,
		service: service,
	}, nil
}

func (instance *Logger) Info(message string) {
	instance.logger.Info(message)

	log.Printf("INFO\t%s:\t%s", instance.service, message)
}

func (instance *Logger) Infof(format string, args ...any) {
	instance.Info(fmt.Sprintf(format, args...))
}

func (instance *Logger) Error(message string, err error) {
	instance.logger.Error(fmt.Sprintf("%s: %v", message, err))

	log.Printf("ERROR\t%s:\t%s: %v", instance.service, message, err)
}

func (instance *Logger) Fatal(message string, err error) {
	instance.logger.Error(fmt.Sprintf("%s: %v", message, err))

	log.Fatalf("FATAL\t%s:\t%s: %v", instance.service, message, err)
}
