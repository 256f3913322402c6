package dbbadger

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/timshannon/badgerhold/v4"

	"github.com/coinninja/dropbitd/internal/core/domain"
	"github.com/coinninja/dropbitd/internal/core/ports"
)

// repoManager holds the badgerhold store shared by all repositories. A
// single store keeps wallet, transaction, invitation and user writes inside
// the same badger transaction.
type repoManager struct {
	store *badgerhold.Store

	walletRepository      domain.WalletRepository
	transactionRepository domain.TransactionRepository
	invitationRepository  domain.InvitationRepository
	userRepository        domain.UserRepository
}

// NewRepoManager opens (or creates if not exists) the badger store on disk.
// It expects a base data dir and an optional logger.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	store, err := createDb(filepath.Join(baseDbDir, "main"), logger)
	if err != nil {
		return nil, fmt.Errorf("opening main db: %w", err)
	}

	return &repoManager{
		store:                 store,
		walletRepository:      NewWalletRepositoryImpl(store),
		transactionRepository: NewTransactionRepositoryImpl(store),
		invitationRepository:  NewInvitationRepositoryImpl(store),
		userRepository:        NewUserRepositoryImpl(store),
	}, nil
}

func (d *repoManager) WalletRepository() domain.WalletRepository {
	return d.walletRepository
}

func (d *repoManager) TransactionRepository() domain.TransactionRepository {
	return d.transactionRepository
}

func (d *repoManager) InvitationRepository() domain.InvitationRepository {
	return d.invitationRepository
}

func (d *repoManager) UserRepository() domain.UserRepository {
	return d.userRepository
}

func (d *repoManager) Close() {
	d.store.Close()
}

// RunTransaction runs the handler with a badger transaction injected in the
// context. Write transactions are retried on conflict.
func (d *repoManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	for {
		res, err := d.runTransaction(ctx, readOnly, handler)
		if err == badger.ErrConflict {
			continue
		}
		return res, err
	}
}

func (d *repoManager) runTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	tx := d.store.Badger().NewTransaction(!readOnly)
	defer tx.Discard()

	txContext := context.WithValue(ctx, "tx", tx)
	res, err := handler(txContext)
	if err != nil {
		return nil, err
	}

	if !readOnly {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	opts.Compression = options.ZSTD

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
