package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	id "knowledgehub/pkg/domain"
)

// Server captures process-level configuration. Governance policy knobs
// (duplicate threshold, reviewer set, reputation table) live here too so no
// business rule is hard-coded at a call site.
type Server struct {
	Addr          string
	JWTSigningKey string

	// DuplicateThreshold is the minimum Jaccard similarity at which two
	// titles are treated as the same underlying document.
	DuplicateThreshold float64

	// ReviewerRoles may transition documents out of Pending.
	ReviewerRoles []id.Role

	Reputation Reputation

	PostgresDSN  string
	Redis        RedisConfig
	KafkaBrokers []string
	NotifyTopic  string

	// CheckTimeout bounds the duplicate and compliance checks run at upload.
	CheckTimeout time.Duration
}

// Reputation externalizes the score-delta table and badge thresholds.
type Reputation struct {
	UploadDelta   int
	ApprovalDelta int
	RatingDelta   int
	CommentDelta  int
	LikeDelta     int

	// Badge thresholds: counter value at which each badge unlocks.
	Badges []BadgeRule
}

// BadgeRule grants a badge when the named counter reaches Threshold.
type BadgeRule struct {
	Badge     string
	Counter   string // "uploads", "approvals", or "score"
	Threshold int
}

// RedisConfig holds connection settings for the optional leaderboard cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// defaultReviewerRoles is the out-of-the-box reviewer set; override with
// KH_REVIEWER_ROLES (comma-separated role names).
var defaultReviewerRoles = []id.Role{
	id.RoleSeniorConsultant,
	id.RoleProjectManager,
	id.RoleKnowledgeChampion,
	id.RoleGovernanceCouncil,
	id.RoleITInfrastructure,
	id.RoleAdmin,
}

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file is honored when present (local development).
func FromEnv() Server {
	_ = godotenv.Load()

	addr := os.Getenv("KH_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:               addr,
		JWTSigningKey:      jwtSigningKey,
		DuplicateThreshold: envFloat("KH_DUPLICATE_THRESHOLD", 0.8),
		ReviewerRoles:      envRoles("KH_REVIEWER_ROLES", defaultReviewerRoles),
		Reputation: Reputation{
			UploadDelta:   envInt("KH_REP_UPLOAD", 5),
			ApprovalDelta: envInt("KH_REP_APPROVAL", 15),
			RatingDelta:   envInt("KH_REP_RATING", 2),
			CommentDelta:  envInt("KH_REP_COMMENT", 1),
			LikeDelta:     envInt("KH_REP_LIKE", 1),
			Badges: []BadgeRule{
				{Badge: "first_upload", Counter: "uploads", Threshold: 1},
				{Badge: "contributor", Counter: "uploads", Threshold: 5},
				{Badge: "knowledge_builder", Counter: "uploads", Threshold: 20},
				{Badge: "trusted_author", Counter: "approvals", Threshold: 3},
				{Badge: "rising_star", Counter: "score", Threshold: 50},
				{Badge: "expert", Counter: "score", Threshold: 250},
			},
		},
		PostgresDSN:  os.Getenv("KH_POSTGRES_DSN"),
		Redis:        redisFromEnv(),
		KafkaBrokers: envList("KH_KAFKA_BROKERS"),
		NotifyTopic:  envDefault("KH_NOTIFY_TOPIC", "knowledgehub.notifications"),
		CheckTimeout: envDuration("KH_CHECK_TIMEOUT", 2*time.Second),
	}
}

func redisFromEnv() RedisConfig {
	return RedisConfig{
		URL:          os.Getenv("KH_REDIS_URL"),
		PoolSize:     envInt("KH_REDIS_POOL_SIZE", 10),
		MinIdleConns: envInt("KH_REDIS_MIN_IDLE", 2),
		DialTimeout:  envDuration("KH_REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  envDuration("KH_REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: envDuration("KH_REDIS_WRITE_TIMEOUT", 3*time.Second),
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envRoles(key string, fallback []id.Role) []id.Role {
	names := envList(key)
	if len(names) == 0 {
		return fallback
	}
	roles := make([]id.Role, 0, len(names))
	for _, name := range names {
		role, err := id.ParseRole(name)
		if err != nil {
			continue
		}
		roles = append(roles, role)
	}
	if len(roles) == 0 {
		return fallback
	}
	return roles
}
