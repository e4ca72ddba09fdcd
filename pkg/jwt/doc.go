// Package jwt issues and checks the API's RS256 access tokens.
//
// Keys are PEM files: a PKCS#1 private key and a PKIX public key, as written
// by GenerateKeyPair. A service built from the public key alone can only
// validate.
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "./keys/private.pem",
//	    Issuer:         "api.eatmeetclub.com",
//	    ExpirationMins: 15,
//	})
//	token, err := svc.Sign(jwt.Claims{UserID: u.ID, Email: u.Email, Role: "member"})
//	claims, err := svc.Validate(token)
//
// Validate maps library errors onto this package's sentinels
// (ErrTokenExpired, ErrInvalidSignature, ...), so callers do not import the
// underlying JWT library.
package jwt
