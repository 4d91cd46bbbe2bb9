package cli

import (
	"bufio"
	"context"
	"io"

	"github.com/dmitrijs2005/bitguard/internal/breach"
	"github.com/dmitrijs2005/bitguard/internal/client/config"
	"github.com/dmitrijs2005/bitguard/internal/cryptox"
	"github.com/dmitrijs2005/bitguard/internal/logging"
)

// breachChecker is satisfied by *breach.Checker.
type breachChecker interface {
	Check(ctx context.Context, password string) (breach.Result, error)
}

type App struct {
	config *config.Config
	kdf    cryptox.KdfParams
	breach breachChecker
	logger logging.Logger
	reader *bufio.Reader
	out    io.Writer
}

// NewApp builds the CLI around in/out. Diagnostics go to logOut.
func NewApp(c *config.Config, in io.Reader, out, logOut io.Writer) (*App, error) {
	kdf, err := c.KdfParams()
	if err != nil {
		return nil, err
	}
	logger := logging.NewTextLogger(logOut, c.LogLevel)

	return &App{
		config: c,
		kdf:    kdf,
		breach: breach.New(c.BreachBaseURL, c.BreachTimeout, logger),
		logger: logger,
		reader: bufio.NewReader(in),
		out:    out,
	}, nil
}

// Run blocks in the REPL until the user exits, input ends or ctx is done.
func (a *App) Run(ctx context.Context) {
	a.logger.Debug(ctx, "vaultctl started", "kdf_time", a.kdf.Time, "kdf_memory_kib", a.kdf.MemoryKiB)
	runREPL(ctx, a, a.reader, a.out)
}
