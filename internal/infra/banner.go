package infra

import (
	"fmt"
	"io"
	"strings"
)

// ANSI Color Codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// PrintBanner displays the startup banner with environment-specific colouring.
func PrintBanner(w io.Writer, cfg *Config) {
	env := strings.ToUpper(cfg.App.Env)

	color := ColorGreen
	switch env {
	case "PRODUCTION", "PROD":
		color = ColorRed
	case "STAGING":
		color = ColorYellow
	case "TEST":
		color = ColorCyan
	}

	classifier := cfg.Classifier.Provider
	if classifier == "zeroshot" {
		classifier += " (" + cfg.Classifier.Model + ")"
	}

	line := func(format string, args ...any) {
		fmt.Fprintf(w, "%s"+format+"%s\n", append(append([]any{color}, args...), ColorReset)...)
	}

	fmt.Fprintln(w)
	line("###########################################################")
	line("#                                                         #")
	line("#               💸 SpendSense API Server                  #")
	line("#                                                         #")
	line("#   ENV:        %-41s #", env)
	line("#   VERSION:    %-41s #", cfg.App.Version)
	line("#   ADDR:       %-41s #", cfg.Server.Addr)
	line("#   DATABASE:   %-41s #", cfg.Database.Driver)
	line("#   CLASSIFIER: %-41s #", truncate(classifier, 41))
	line("#   CACHE:      %-41s #", cfg.Cache.Backend)
	line("#                                                         #")
	line("###########################################################")
	fmt.Fprintln(w)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
