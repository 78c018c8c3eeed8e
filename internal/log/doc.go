// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The SecureHandler masks attribute values whose key names a secret
// (deploy hooks, tokens, cookies, authorization headers) and string values
// that look like one regardless of key: deploy-hook URLs, URLs carrying
// credentials in their query, bearer and basic credentials, JWTs.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	// The hook URL is masked in the output.
//	logger.Info("triggering rebuild", "deploy_hook", os.Getenv("DEPLOY_HOOK"))
package log
