// Package logger monta o zap usado pelo serve e pelos comandos da CLI.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New cria o logger do auraflow: console colorido em "local", JSON nos demais.
// A saída é sempre stderr para não misturar logs com tabelas e JSON do stdout.
func New(serviceName string, env string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if env == "local" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		// sem amostragem: cada falha de publicação precisa aparecer
		cfg.Sampling = nil
	}

	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build(
		zap.Fields(
			zap.String("service", serviceName),
			zap.String("env", env),
		),
	)
}
