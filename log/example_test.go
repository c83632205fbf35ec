package log_test

import (
	"log/slog"
	"os"

	"github.com/ardnew/pattern/log"
)

func Example() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithTimeLayout("none"),
		log.WithPretty(false),
	)

	logger.Info("template compiled", slog.Int("exprs", 3))
	logger.Debug("not shown")
	// Output:
	// level=INFO msg="template compiled" exprs=3
}

func ExampleTimeLayout() {
	os.Stdout.WriteString(log.TimeLayout("kitchen") + "\n")
	// Output:
	// 3:04PM
}
