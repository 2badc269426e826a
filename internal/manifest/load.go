package manifest

import (
	"bytes"
	"fmt"
	"os"

	"github.com/danmuck/manifestd/internal/logging"
	"github.com/danmuck/manifestd/internal/tree"
)

// Parse decodes data in the given format and freezes the result into a store.
// FormatAuto sniffs the content.
func Parse(data []byte, format Format) (*tree.Store, error) {
	return parse("", data, format)
}

// Load reads and parses the manifest at path. FormatAuto uses the file extension,
// then the content.
func Load(path string, format Format) (*tree.Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	store, err := parse(path, data, format)
	if err != nil {
		return nil, fmt.Errorf("manifest: load %s: %w", path, err)
	}
	log := logging.For("manifest")
	log.Debug().
		Str("path", path).
		Str("root", store.Root().Tag()).
		Int("nodes", store.Len()).
		Msg("manifest.Load")
	return store, nil
}

func parse(path string, data []byte, format Format) (*tree.Store, error) {
	if format == "" || format == FormatAuto {
		format = DetectFormat(path, data)
	}
	var (
		root *tree.Node
		err  error
	)
	switch format {
	case FormatXML:
		root, err = DecodeXML(bytes.NewReader(data))
	case FormatYAML:
		root, err = DecodeYAML(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return tree.NewStore(root)
}
