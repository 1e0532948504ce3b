package client

import (
	"embed"
	"encoding/json"
)

//go:embed sample/*.json
var sampleFS embed.FS

// loadSample panics on malformed files; they are compiled in and covered by tests.
func loadSample[T any](name string) []T {
	b, err := sampleFS.ReadFile("sample/" + name)
	if err != nil {
		panic(err)
	}
	var out []T
	if err := json.Unmarshal(b, &out); err != nil {
		panic(err)
	}
	return out
}

// SampleGames is the catalog ListGames returns while offline.
func SampleGames() []Game { return loadSample[Game]("games.json") }

func SampleCommunities() []Community { return loadSample[Community]("communities.json") }

func SampleBlogs() []Blog { return loadSample[Blog]("blogs.json") }
