package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Seal(ctx context.Context) error
	Open(ctx context.Context) error
	Breach(ctx context.Context) error
	GenPass(ctx context.Context, args []string) error
}

// runREPL starts a simple read-eval-print loop for vaultctl.
//
// It reads a line from reader, parses the first token as the command and
// dispatches to a. Command errors are printed and the loop continues. The
// loop exits on EOF, on "exit"/"quit" or when ctx is cancelled.
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader, out io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprint(out, "vault> ")

		line, err := readLine(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				fmt.Fprintln(out, "error:", err)
			}
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		var cmdErr error
		switch cmd {
		case "help":
			fmt.Fprintln(out, "Available commands: seal, open, breach, genpass [length], exit")

		case "seal":
			cmdErr = a.Seal(ctx)

		case "open":
			cmdErr = a.Open(ctx)

		case "breach":
			cmdErr = a.Breach(ctx)

		case "genpass":
			cmdErr = a.GenPass(ctx, parts[1:])

		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return

		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(out, "error:", cmdErr)
		}
	}
}
