package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
	KafkaMinBytes     = 10e3
	KafkaMaxBytes     = 10e6
)

const (
	DefaultHTTPTimeout     = 10 * time.Second
	PublishConfirmTimeout  = 10 * time.Second
	DefaultPollDelay       = 100 * time.Millisecond
	DefaultTSSCacheTTL     = 24 * time.Hour
	DefaultRateLimitRPS    = 10.0
	DefaultRateLimitBurst  = 20
	DefaultRateLimitMaxAge = 10 * time.Minute
)

const (
	CacheKeyPrefixJoinRecord  = "join:record:"
	CacheKeyPrefixJoinJournal = "join:journal:"
	CacheKeyPrefixJoinDone    = "join:done:"
	CacheKeyPrefixTSS         = "tss:"
)

const (
	DefaultArenaInputTopic     = "privat-syfo-sm2013-arena-input"
	DefaultJournalCreatedTopic = "aapen-syfo-oppgave-journalOpprettet"
	DefaultArenaQueue          = "arena.sykmelding"
)

// Join window relative to the record timestamp.
const (
	DefaultJoinWindowBefore = 14 * 24 * time.Hour
	DefaultJoinGrace        = 31 * 24 * time.Hour
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	ServiceNameArena = "arena-service"
	ServiceNameJoin  = "join-service"
)

const (
	HeaderRequestID         = "requestId"
	HeaderSamhandlerFnr     = "samhandlerFnr"
	HeaderSamhandlerOrgName = "samhandlerOrgName"
)
