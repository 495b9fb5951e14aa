package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access token
// on outbound API requests.
const AuthorizationHeaderName = "Authorization"

// TokenExpiredMessage is the body the server answers with when an access
// token is valid but expired; the client uses it to trigger a refresh.
const TokenExpiredMessage = "token expired"
