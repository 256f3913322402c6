package application

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/coinninja/dropbitd/internal/core/domain"
	"github.com/coinninja/dropbitd/pkg/coinninja"
)

// fetchSummaries queries the API for the txids touching any owned address.
// Batches run concurrently against the network collaborator; all persistence
// from the pass stays serialized behind the single RunTransaction later on.
func (s *syncService) fetchSummaries(
	addresses []domain.Address,
) ([]coinninja.AddressTransactionSummary, error) {
	if len(addresses) <= 0 {
		return nil, nil
	}

	batches := make([][]string, 0, len(addresses)/addressBatchSize+1)
	batch := make([]string, 0, addressBatchSize)
	for _, addr := range addresses {
		batch = append(batch, addr.Address)
		if len(batch) >= addressBatchSize {
			batches = append(batches, batch)
			batch = make([]string, 0, addressBatchSize)
		}
	}
	if len(batch) > 0 {
		batches = append(batches, batch)
	}

	var mutex sync.Mutex
	summaries := make([]coinninja.AddressTransactionSummary, 0)

	eg := &errgroup.Group{}
	eg.SetLimit(maxConcurrentFetches)
	for i := range batches {
		b := batches[i]
		eg.Go(func() error {
			res, err := s.apiClient.GetAddressTransactionSummaries(b)
			if err != nil {
				return err
			}
			mutex.Lock()
			summaries = append(summaries, res...)
			mutex.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return summaries, nil
}

// fetchDetails resolves the canonical txid set of the pass and fetches the
// full detail payload of every txid in it.
func (s *syncService) fetchDetails(
	summaries []coinninja.AddressTransactionSummary,
) (map[string]struct{}, []coinninja.TransactionResponse, error) {
	canonical := make(map[string]struct{})
	for _, summary := range summaries {
		canonical[summary.Txid] = struct{}{}
	}

	txids := make([]string, 0, len(canonical))
	for txid := range canonical {
		txids = append(txids, txid)
	}

	var mutex sync.Mutex
	responses := make([]coinninja.TransactionResponse, 0, len(txids))

	eg := &errgroup.Group{}
	eg.SetLimit(maxConcurrentFetches)
	for i := range txids {
		txid := txids[i]
		eg.Go(func() error {
			res, err := s.apiClient.GetTransaction(txid)
			if err != nil {
				return err
			}
			mutex.Lock()
			responses = append(responses, *res)
			mutex.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	return canonical, responses, nil
}
