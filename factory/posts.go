package factory

import (
	"fmt"
	"io"
	"os"

	"github.com/warp/medevac-engine/medevac"
	"gopkg.in/yaml.v3"
)

// PostsFile is the YAML seed for the post lookup table:
//
//	posts:
//	  - city: Nairobi
//	    country: Kenya
//	    region: AF
type PostsFile struct {
	Posts []medevac.Post `yaml:"posts"`
}

// ParsePostsYAML reads a posts seed document.
func ParsePostsYAML(r io.Reader) ([]medevac.Post, error) {
	var pf PostsFile
	if err := yaml.NewDecoder(r).Decode(&pf); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse posts YAML: %w", err)
	}
	return pf.Posts, nil
}

// LoadPostsYAML reads a posts seed file from disk.
func LoadPostsYAML(path string) ([]medevac.Post, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open posts file: %w", err)
	}
	defer f.Close()
	return ParsePostsYAML(f)
}
