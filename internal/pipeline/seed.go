package pipeline

import (
	"encoding/json"
	"hash/fnv"
	"math/rand"
)

// localRand derives a stage-scoped PRNG from the run-level seed. It shapes
// local prompt assembly only (ordering of emphasis lines); the remote
// service's own sampling is unaffected, so equal seeds reproduce prompts,
// not generated output.
func localRand(seed int64, stage string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(stage))
	return rand.New(rand.NewSource(seed ^ int64(h.Sum64())))
}

// shuffled returns a seed-ordered copy of lines.
func shuffled(r *rand.Rand, lines []string) []string {
	out := make([]string, len(lines))
	copy(out, lines)
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func bullets(lines []string) string {
	s := ""
	for _, l := range lines {
		s += "- " + l + "\n"
	}
	return s
}

// mustJSON renders v as indented JSON for prompt embedding.
func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
