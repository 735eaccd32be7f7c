package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"MoodPulse/internal/domain/models"
	"MoodPulse/internal/mood"
)

// Fingerprint hashes the semantic content of a prospective action: the
// mood, the bucketed classifier inputs, and each asset's trend and volume
// buckets from the short window. Two AI phrasings of the same market fact
// produce the same fingerprint, so restatements are caught as duplicates.
func Fingerprint(m models.Mood, in mood.Inputs, state models.CorrelationState) string {
	var b strings.Builder
	b.WriteString(string(m))
	b.WriteByte('|')
	b.WriteString(string(in.Volatility))
	b.WriteByte('|')
	b.WriteString(string(in.Trend))
	b.WriteByte('|')
	b.WriteString(string(in.Correlation))

	if short := state.Shortest(); short != nil {
		assets := make([]string, 0, len(short.Assets))
		for a := range short.Assets {
			assets = append(assets, a)
		}
		sort.Strings(assets)
		for _, a := range assets {
			st := short.Assets[a]
			b.WriteByte('|')
			b.WriteString(a)
			b.WriteByte(':')
			b.WriteString(string(st.Trend))
			b.WriteByte(':')
			b.WriteString(string(st.VolumeTrend))
		}
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
