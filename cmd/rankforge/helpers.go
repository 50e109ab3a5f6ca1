package main

import (
	"strings"

	"github.com/rankforge/rankforge/internal/pkg/errors"
)

func errUnknownEngine(engine string) error {
	return errors.Newf(errors.CodeValidation, "unknown engine %q (want batch or neural)", engine)
}

func splitCommas(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
