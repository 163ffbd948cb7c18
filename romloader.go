package okto

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

var ErrEmptyRom = errors.New("rom is empty")

type RomFetchError struct {
	URL    string
	Status string
}

func (err RomFetchError) Error() string {
	return fmt.Sprintf("fetching rom from %s: %s", err.URL, err.Status)
}

// RomSource is a rom location, either a local path or an HTTP(S) URL.
type RomSource struct {
	location string
	isURL    bool
}

// RomSourceFromString classifies the input by scheme prefix; anything
// that is not http(s) is treated as a filesystem path.
func RomSourceFromString(input string) RomSource {
	isURL := strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")

	return RomSource{location: input, isURL: isURL}
}

func (s RomSource) IsURL() bool {
	return s.isURL
}

func (s RomSource) String() string {
	return s.location
}

// RomLoader fetches rom bytes from local files or over HTTP and
// validates the result against the machine's rom size limit.
type RomLoader struct {
	client *http.Client
}

func NewRomLoader() *RomLoader {
	return &RomLoader{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func NewRomLoaderWithClient(client *http.Client) *RomLoader {
	return &RomLoader{client: client}
}

// Load reads the rom the source points at. An empty rom or one larger
// than the loadable memory region is rejected here, before it reaches
// the machine.
func (l *RomLoader) Load(source RomSource) ([]byte, error) {
	var (
		rom []byte
		err error
	)
	if source.isURL {
		rom, err = l.loadFromURL(source.location)
	} else {
		rom, err = os.ReadFile(source.location)
	}
	if err != nil {
		return nil, fmt.Errorf("loading rom from %s: %w", source.location, err)
	}

	if len(rom) == 0 {
		return nil, ErrEmptyRom
	}
	if len(rom) > MaxRomSize {
		return nil, ErrRomTooLarge
	}

	return rom, nil
}

func (l *RomLoader) loadFromURL(url string) ([]byte, error) {
	resp, err := l.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, RomFetchError{URL: url, Status: resp.Status}
	}

	// Limit the read so a misbehaving server cannot balloon memory;
	// one extra byte lets the size check distinguish "too large".
	return io.ReadAll(io.LimitReader(resp.Body, MaxRomSize+1))
}
