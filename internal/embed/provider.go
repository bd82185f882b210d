package embed

import "fmt"

// Options selects and configures an embedding provider.
type Options struct {
	Provider string // "hash" or "ollama"
	BaseURL  string
	Model    string
	Dim      int
}

// New builds the embedder named by opts.Provider along with the latency
// stats it records into.
func New(opts Options) (Embedder, *Stats, error) {
	switch opts.Provider {
	case "", "hash":
		h := NewHashEmbedder(opts.Dim)
		return h, h.Stats, nil
	case "ollama":
		c := NewOllamaClient(opts.BaseURL, opts.Model)
		return c, c.Stats, nil
	default:
		return nil, nil, fmt.Errorf("unknown embedding provider: %q", opts.Provider)
	}
}
