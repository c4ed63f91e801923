package ports

import "context"

// APICredentials son las credenciales L2 del CLOB derivadas de la wallet.
type APICredentials struct {
	APIKey     string
	Secret     string
	Passphrase string
}

// CredentialsProvider entrega las credenciales del CLOB para el feed de
// cuenta. La derivación (firma L1) vive fuera de este core; el provider
// nunca expone la private key.
type CredentialsProvider interface {
	Credentials(ctx context.Context) (APICredentials, error)
}
