package stdout

import (
	"context"
	"fmt"
	"io"
	"os"

	"subforge/internal/publishers"
)

type Publisher struct {
	out io.Writer
}

func (p *Publisher) Publish(_ context.Context, document string, config map[string]interface{}) error {
	w := p.out
	if w == nil {
		w = os.Stdout
	}
	_, err := fmt.Fprintln(w, publishers.Payload(document, config))
	return err
}

func init() {
	publishers.Register("stdout", func() publishers.Publisher { return &Publisher{} })
}
