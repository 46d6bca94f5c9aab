package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/davmarks/internal/client/client"
	"github.com/dmitrijs2005/davmarks/internal/client/models"
	"github.com/dmitrijs2005/davmarks/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/davmarks/internal/common"
	"github.com/dmitrijs2005/davmarks/internal/cryptox"
	"github.com/dmitrijs2005/davmarks/internal/dbx"
)

// Dialer builds a transport for the given credentials.
type Dialer func(serverURL, username, password string, timeout time.Duration) (client.Client, error)

func dialWebDAV(serverURL, username, password string, timeout time.Duration) (client.Client, error) {
	return client.NewWebDAVClient(serverURL, username, password, timeout)
}

// CredentialService validates, seals and stores the WebDAV credentials and
// opens transports with them.
type CredentialService struct {
	db       *sql.DB
	vault    *cryptox.Vault
	validate *validator.Validate
	dial     Dialer
	timeout  time.Duration
}

func NewCredentialService(db *sql.DB, timeout time.Duration) *CredentialService {
	return &CredentialService{
		db:       db,
		vault:    cryptox.NewVault(common.VaultLabel),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		dial:     dialWebDAV,
		timeout:  timeout,
	}
}

func (s *CredentialService) state(db dbx.DBTX) *metadata.State {
	return metadata.NewState(metadata.NewSQLiteRepository(db))
}

// Validate checks that every field is present, the server URL is absolute
// and the password is long enough. Failures wrap common.ErrValidation.
func (s *CredentialService) Validate(in models.CredentialInput) error {
	in.ServerURL = strings.TrimSpace(in.ServerURL)
	in.Username = strings.TrimSpace(in.Username)

	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: invalid %s", common.ErrValidation, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return cryptox.ValidatePassword(in.Password)
}

// Save stores the credentials with the password sealed by the vault. When
// the server or user changes, the remembered remote timestamp is reset so
// the next sync starts over against the new location.
func (s *CredentialService) Save(ctx context.Context, in models.CredentialInput) error {
	if err := s.Validate(in); err != nil {
		return err
	}

	sealed, err := s.vault.Encrypt(in.Password)
	if err != nil {
		return fmt.Errorf("failed to encrypt password: %w", err)
	}

	rec := models.Credentials{
		ServerURL:       strings.TrimSpace(in.ServerURL),
		Username:        strings.TrimSpace(in.Username),
		EncryptedSecret: sealed,
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		st := s.state(tx)

		prev, err := st.Credentials(ctx)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		if err := st.SaveCredentials(ctx, rec); err != nil {
			return err
		}
		if prev.ServerURL == rec.ServerURL && prev.Username == rec.Username {
			return nil
		}

		sync, err := st.SyncState(ctx)
		if err != nil {
			return err
		}
		sync.LastKnownServerTimestamp = 0
		return st.SaveSyncState(ctx, sync)
	})
}

// Load returns the saved credentials with the password opened. It fails
// with common.ErrorNotFound before the first Save and with
// common.ErrDecryption when the sealed password does not verify.
func (s *CredentialService) Load(ctx context.Context) (models.CredentialInput, error) {
	rec, err := s.state(s.db).Credentials(ctx)
	if err != nil {
		return models.CredentialInput{}, err
	}

	password, err := s.vault.Decrypt(rec.EncryptedSecret)
	if err != nil {
		return models.CredentialInput{}, err
	}

	return models.CredentialInput{ServerURL: rec.ServerURL, Username: rec.Username, Password: password}, nil
}

// TestConnection validates in and pings the server with it without saving
// anything.
func (s *CredentialService) TestConnection(ctx context.Context, in models.CredentialInput) error {
	if err := s.Validate(in); err != nil {
		return err
	}

	c, err := s.dial(strings.TrimSpace(in.ServerURL), strings.TrimSpace(in.Username), in.Password, s.timeout)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	return c.Ping(ctx)
}

// Connect opens a transport with the saved credentials. It is the sync
// engine's Connector.
func (s *CredentialService) Connect(ctx context.Context) (client.Client, error) {
	in, err := s.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("credentials not available: %w", err)
	}
	return s.dial(in.ServerURL, in.Username, in.Password, s.timeout)
}
