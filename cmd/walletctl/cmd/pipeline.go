package cmd

import (
	"context"
	"fmt"

	"github.com/perawallet/pera-wallet-core/internal/accounts"
	"github.com/perawallet/pera-wallet-core/internal/chain"
	"github.com/perawallet/pera-wallet-core/internal/events"
	"github.com/perawallet/pera-wallet-core/internal/resolver"
	"github.com/perawallet/pera-wallet-core/internal/services"
	"github.com/perawallet/pera-wallet-core/internal/signing"
	"github.com/perawallet/pera-wallet-core/internal/types"
)

type pipeline struct {
	send    *services.SendService
	keys    *signing.KeyStore
	address string
}

// newPipeline wires the full service graph against the configured node and
// registers the operator's key.
func newPipeline() (*pipeline, error) {
	if algodURL == "" {
		return nil, fmt.Errorf("an algod URL is required (--algod-url or ALGOD_URL)")
	}
	if mnemonic == "" {
		return nil, fmt.Errorf("a signing mnemonic is required (--mnemonic or WALLET_MNEMONIC)")
	}

	client, err := chain.NewAlgodClient(algodURL, algodToken)
	if err != nil {
		return nil, err
	}

	keys := signing.NewKeyStore()
	address, err := keys.AddMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}

	send := services.NewSendService(services.SendServiceParams{
		Params:    chain.NewParamsService(client),
		Accounts:  accounts.NewService(chain.NewAccountService(client)),
		Resolver:  resolver.NewChainResolver(nil, nil, nil),
		Composer:  services.NewComposerService(),
		Validator: services.NewValidationService(),
		Submitter: chain.NewSubmissionService(client),
		Publisher: events.NopPublisher{},
	})

	return &pipeline{send: send, keys: keys, address: address}, nil
}

// runFlow starts the flow for the draft and prints events until a terminal
// one arrives.
func (p *pipeline) runFlow(ctx context.Context, draft *types.TransactionDraft) error {
	signer, ok := p.keys.SignerFor(draft.Sender)
	if !ok {
		return fmt.Errorf("no key material for %s", draft.Sender)
	}

	p.send.Send(ctx, draft, signer)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-p.send.Events():
			switch event.Type {
			case types.EventLoading:
				fmt.Println("composing...")
			case types.EventSucceeded:
				fmt.Printf("submitted: %s\n", event.TxID)
			case types.EventConfirmed:
				fmt.Printf("confirmed in round %d\n", event.ConfirmedRound)
				return nil
			case types.EventFailed:
				return fmt.Errorf("flow failed: %s", event.FailureKind)
			}
		}
	}
}
