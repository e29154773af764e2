package heat

import (
	"bufio"
	"compress/gzip"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	EncodingGob  = "gob"
	EncodingJSON = "json"

	formatVersion = 1
)

var ErrBadFormat = errors.New("heat: unrecognized checkpoint format")

type encoder interface {
	Encode(e any) error
}

type decoder interface {
	Decode(e any) error
}

func newEncoder(w io.Writer, enc string) encoder {
	if enc == EncodingJSON {
		return json.NewEncoder(w)
	}
	return gob.NewEncoder(w)
}

func newDecoder(r io.Reader, enc string) decoder {
	if enc == EncodingJSON {
		return json.NewDecoder(r)
	}
	return gob.NewDecoder(r)
}

func CheckEncoding(enc string) error {
	switch enc {
	case "", EncodingGob, EncodingJSON:
		return nil
	}
	return fmt.Errorf("heat: unknown encoding %q (want gob or json)", enc)
}

type solutionFile struct {
	Version int
	Field   Field
}

type linearFile struct {
	Version int
	Linear  Linear
}

// WriteLinear writes the visualization file.
func (f *Field) WriteLinear(w io.Writer, enc string) error {
	if err := newEncoder(w, enc).Encode(linearFile{Version: formatVersion, Linear: *f.Linearize()}); err != nil {
		return fmt.Errorf("encode linear data: %w", err)
	}
	return nil
}

// WriteSolution writes the complete solution, optionally gzip compressed.
func (f *Field) WriteSolution(w io.Writer, enc string, compress bool) error {
	if !compress {
		if err := newEncoder(w, enc).Encode(solutionFile{Version: formatVersion, Field: *f}); err != nil {
			return fmt.Errorf("encode solution: %w", err)
		}
		return nil
	}

	zw := gzip.NewWriter(w)
	if err := newEncoder(zw, enc).Encode(solutionFile{Version: formatVersion, Field: *f}); err != nil {
		zw.Close()
		return fmt.Errorf("encode solution: %w", err)
	}
	return zw.Close()
}

// ReadSolution loads a complete solution, detecting compression and
// encoding from the leading bytes.
func ReadSolution(r io.Reader) (*Field, error) {
	br, enc, err := sniff(r)
	if err != nil {
		return nil, err
	}
	var sf solutionFile
	if err := newDecoder(br, enc).Decode(&sf); err != nil {
		return nil, fmt.Errorf("decode solution: %w", err)
	}
	if sf.Version != formatVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadFormat, sf.Version)
	}
	if err := sf.Field.Mesh.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if len(sf.Field.Data) != sf.Field.Mesh.Nodes() {
		return nil, fmt.Errorf("%w: %d values for %d nodes", ErrBadSolution, len(sf.Field.Data), sf.Field.Mesh.Nodes())
	}
	return &sf.Field, nil
}

func ReadLinear(r io.Reader) (*Linear, error) {
	br, enc, err := sniff(r)
	if err != nil {
		return nil, err
	}
	var lf linearFile
	if err := newDecoder(br, enc).Decode(&lf); err != nil {
		return nil, fmt.Errorf("decode linear data: %w", err)
	}
	if lf.Version != formatVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadFormat, lf.Version)
	}
	l := &lf.Linear
	if l.NX < 1 || l.NY < 1 || len(l.X) != l.NX || len(l.Y) != l.NY {
		return nil, fmt.Errorf("%w: %dx%d grid with %d x and %d y coordinates", ErrBadFormat, l.NX, l.NY, len(l.X), len(l.Y))
	}
	if len(lf.Linear.Values) != lf.Linear.NX*lf.Linear.NY {
		return nil, fmt.Errorf("%w: %d values for a %dx%d grid", ErrBadFormat, len(lf.Linear.Values), lf.Linear.NX, lf.Linear.NY)
	}
	return &lf.Linear, nil
}

func sniff(r io.Reader) (*bufio.Reader, string, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(2)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if head[0] == 0x1f && head[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrBadFormat, err)
		}
		return sniff(zr)
	}
	if head[0] == '{' {
		return br, EncodingJSON, nil
	}
	return br, EncodingGob, nil
}
