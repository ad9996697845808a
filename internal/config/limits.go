package config

const (
	// MaxMatchResults caps the number of match records FindMatches
	// returns after merging exact and fuzzy hits.
	MaxMatchResults = 10

	// FuzzyMatchThreshold is the minimum similarity (percent) a fuzzy
	// candidate must score to be kept.
	FuzzyMatchThreshold = 70

	// TagMismatchSimilarity is the fixed score for a candidate whose
	// plain text equals the query's but whose token structure differs.
	TagMismatchSimilarity = 99

	// FuzzyCandidateLimit bounds how many prefilter candidates the
	// text-search index may hand to the scorer per query.
	FuzzyCandidateLimit = 50

	// MinQueryTermLength drops very short tokens from the prefilter
	// query; one-character words match too much to be useful.
	MinQueryTermLength = 2

	// BatchPageSize is how many segments the batch coordinator streams
	// per page. Large files are never loaded whole.
	BatchPageSize = 200

	// MaxProjectNameLength fits PostgreSQL VARCHAR(255).
	MaxProjectNameLength = 255

	// MaxMemoryNameLength fits PostgreSQL VARCHAR(255).
	MaxMemoryNameLength = 255
)
