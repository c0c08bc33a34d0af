package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/radieske/auraflow/internal/cli"
	"github.com/radieske/auraflow/internal/shared/apperr"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		// erros de domínio já têm mensagem para o usuário
		msg := err.Error()
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Msg != "" {
			msg = ae.Msg
		}
		fmt.Fprintln(os.Stderr, "error:", msg)
		os.Exit(1)
	}
}
