// Package session runs the interactive vbsnap command loop.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jbweber/vbsnap/internal/vbox"
)

// Prompt is printed before each line when reading from a terminal.
const Prompt = "vbsnap>> "

// dispatcher runs one command line.
//
// In production, this is satisfied by *command.Dispatcher.
// In tests, this is satisfied by mock implementations.
type dispatcher interface {
	Run(ctx context.Context, args []string) error
	Usage() error
}

// Run reads commands from in until "quit", end of input or ctx is done.
// The prompt is written to prompt only when interactive is set. Command
// errors are logged and the loop continues.
func Run(ctx context.Context, in io.Reader, prompt io.Writer, interactive bool, d dispatcher, log logrus.FieldLogger) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				readErr <- nil
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		if interactive {
			if _, err := io.WriteString(prompt, Prompt); err != nil {
				return fmt.Errorf("failed to write prompt: %w", err)
			}
		}

		var line string
		select {
		case <-ctx.Done():
			log.Debug("Session interrupted")
			return nil
		case l, ok := <-lines:
			if !ok {
				if interactive {
					fmt.Fprintln(prompt)
				}
				if err := <-readErr; err != nil {
					return fmt.Errorf("failed to read command: %w", err)
				}
				return nil
			}
			line = l
		}

		switch strings.TrimSpace(line) {
		case "":
			continue
		case "quit":
			return nil
		case "help":
			if err := d.Usage(); err != nil {
				log.WithError(err).Error("Failed to print usage")
			}
			continue
		}

		if err := d.Run(ctx, strings.Fields(line)); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"command": line,
				"stderr":  vbox.ToolStderr(err),
			}).Error("Command failed")
		}
	}
}
