package constants

// Centralized constants for headers and upstream integrations.
const (
	// HTTP headers and content types
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderRequestID     = "X-Request-ID"

	ContentTypeJSON = "application/json"

	// Authorization prefix
	BearerPrefix = "Bearer "

	// PokeAPI endpoints and base URL
	PokeAPIBaseURL     = "https://pokeapi.co/api/v2"
	PokeAPIPokemonPath = "/pokemon/%d/"
	PokeAPITypePath    = "/type/%s/"

	// Remote deck service
	DeckSourcePath = "/deck/%d"

	// Session cookie issued by the identity service
	CookieSessionName = "token"

	// Database drivers
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// Type chart sources
	TypeChartBuiltin = "builtin"
	TypeChartPokeAPI = "pokeapi"
)

// Gin context keys set by the auth middleware
const (
	CtxUserID     = "userID"
	CtxUsername   = "username"
	CtxCredential = "credential"
	CtxRequestID  = "requestID"
)

// Routes used by the backend router
const (
	RouteAPIPrefix     = "/api"
	RouteHealth        = "/health"
	RouteVersion       = "/version"
	RouteTypes         = "/types"
	RouteBattle        = "/battle"
	RouteLeaderboard   = "/leaderboard"
	RouteMe            = "/users/me"
	RouteDecks         = "/decks"
	RouteDeck          = "/deck"
	RouteDeckByID      = "/deck/:deckID"
	RouteMatch         = "/match"
	RouteMatches       = "/matches"
	RouteMatchByID     = "/match/:matchID"
	RouteMatchJoin     = "/match/:matchID/join"
	RouteMatchDeck     = "/match/:matchID/deck"
	RouteMatchRound    = "/match/:matchID/round"
	RouteMatchRounds   = "/match/:matchID/rounds"
	RouteMatchEvents   = "/match/:matchID/events"
	RouteRoundByID     = "/round/:roundID"
	RouteCreatureByID  = "/creature/:creatureID"
	RouteInvitations   = "/invitations"
	ParamMatchID       = "matchID"
	ParamDeckID        = "deckID"
	ParamRoundID       = "roundID"
	ParamCreatureID    = "creatureID"
	QueryStatus        = "status"
	QueryView          = "view"
	QueryFirst         = "first"
	QuerySecond        = "second"
	QueryLimit         = "limit"
	ViewMatch          = "match"
	DefaultLeaderboard = 10
)

// Common JSON response keys
const (
	JSONKeyError  = "error"
	JSONKeyStatus = "status"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest  = "Invalid request"
	ErrInvalidMatchID  = "Invalid match ID"
	ErrInvalidDeckID   = "Invalid deck ID"
	ErrInvalidRoundID  = "Invalid round ID"
	ErrInvalidCreature = "Invalid creature id"
	ErrInvalidStatus   = "Invalid status filter"
	ErrInternal        = "Internal server error"

	ErrAuthRequired   = "Authentication required"
	ErrInvalidSession = "Invalid session"
)

// Event names published on the bus
const (
	EventMatchCreated      = "match.created"
	EventMatchJoined       = "match.joined"
	EventMatchDeckSelected = "match.deck_selected"
	EventRoundResolved     = "round.resolved"
	EventMatchFinished     = "match.finished"
)

// Logging field names
const (
	LogFieldMatchID    = "match_id"
	LogFieldUserID     = "user_id"
	LogFieldDeckID     = "deck_id"
	LogFieldRoundID    = "round_id"
	LogFieldTurn       = "turn"
	LogFieldCreatureID = "creature_id"
	LogFieldStatus     = "status"
	LogFieldEvent      = "event"
	LogFieldAttempt    = "attempt"
	LogFieldSource     = "source"
	LogFieldName       = "name"
	LogFieldKey        = "key"
	LogFieldAddr       = "addr"
	LogFieldRequestID  = "request_id"
	LogFieldMethod     = "method"
	LogFieldPath       = "path"
	LogFieldLatency    = "latency_ms"
	LogFieldCount      = "count"
)
