package common

// AuthorizationHeaderName is the HTTP header carrying the session token.
const AuthorizationHeaderName = "Authorization"

// AvatarContentType is the media type every stored avatar is encoded as.
const AvatarContentType = "image/png"
