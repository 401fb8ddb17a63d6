package cmd

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/owleyeart/bba/pkg/gettoken/acquire"
	"github.com/owleyeart/bba/pkg/gettoken/auth"
	"github.com/owleyeart/bba/pkg/gettoken/cachestore"
	"github.com/owleyeart/bba/pkg/gettoken/config"
	"github.com/owleyeart/bba/pkg/gettoken/msal"
)

// NewIdentityClient is the default ClientFactory.
func NewIdentityClient(cc config.ClientConfig, store cachestore.Store, log *zap.SugaredLogger, out io.Writer) (acquire.IdentityClient, error) {
	switch cc.Backend {
	case config.BackendOIDC:
		client, err := auth.NewClient(cc, store, log)
		if err != nil {
			return nil, err
		}
		return client.WithOIDCConfig(func(o *auth.OIDCConfig) { o.Out = out }), nil
	case config.BackendMSAL, "":
		return msal.NewClient(cc, store, msal.WithLogger(log), msal.WithOutput(out))
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cc.Backend)
	}
}
