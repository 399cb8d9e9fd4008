package server

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/perawallet/pera-wallet-core/internal/accounts"
	"github.com/perawallet/pera-wallet-core/internal/chain"
	"github.com/perawallet/pera-wallet-core/internal/config"
	"github.com/perawallet/pera-wallet-core/internal/events"
	"github.com/perawallet/pera-wallet-core/internal/handlers"
	"github.com/perawallet/pera-wallet-core/internal/interfaces"
	"github.com/perawallet/pera-wallet-core/internal/ledger"
	"github.com/perawallet/pera-wallet-core/internal/logger"
	"github.com/perawallet/pera-wallet-core/internal/monitor"
	"github.com/perawallet/pera-wallet-core/internal/resolver"
	"github.com/perawallet/pera-wallet-core/internal/services"
	"github.com/perawallet/pera-wallet-core/internal/signing"
)

var (
	transactionHandler *handlers.TransactionHandler
	metricsRegistry    *prometheus.Registry
)

// InitializeHandlers builds the service graph from configuration.
func InitializeHandlers(cfg *config.Config) error {
	client, err := chain.NewAlgodClient(cfg.AlgodURL, cfg.AlgodToken)
	if err != nil {
		return err
	}

	paramsService := chain.NewParamsService(client)
	accountService := accounts.NewService(chain.NewAccountService(client))
	submitter := chain.NewSubmissionService(client)

	walletAccounts := resolver.NewContactStore()
	contacts := resolver.NewContactStore()
	addressResolver := resolver.NewChainResolver(walletAccounts, contacts, resolver.NewNFDClient(cfg.NFDAPIBaseURL))

	var publisher interfaces.EventPublisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		logger.Info("Kafka event publishing enabled",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	}

	metricsRegistry = prometheus.NewRegistry()
	metrics := monitor.NewMetrics(metricsRegistry)

	keys := signing.NewKeyStore()
	if words := os.Getenv("WALLET_MNEMONIC"); words != "" {
		address, err := keys.AddMnemonic(words)
		if err != nil {
			return err
		}
		logger.Info("Loaded local signing key", zap.String("address", address))
	}

	var bridge *ledger.BridgeSigner
	if cfg.LedgerBridgeURL != "" {
		bridge = ledger.NewBridgeSigner(cfg.LedgerBridgeURL, "Ledger Nano")
	}

	common := handlers.NewCommonServices(handlers.CommonServices{
		Params:    paramsService,
		Accounts:  accountService,
		Resolver:  addressResolver,
		Composer:  services.NewComposerService(),
		Validator: services.NewValidationService(),
		Submitter: submitter,
		Publisher: publisher,
		Metrics:   metrics,
		Keys:      keys,
		Bridge:    bridge,
	})

	flows := handlers.NewFlowManager(func() *services.SendService {
		return services.NewSendService(services.SendServiceParams{
			Params:    common.Params,
			Accounts:  common.Accounts,
			Resolver:  common.Resolver,
			Composer:  common.Composer,
			Validator: common.Validator,
			Submitter: common.Submitter,
			Publisher: common.Publisher,
			Metrics:   common.Metrics,
		})
	})

	transactionHandler = handlers.NewTransactionHandler(common, flows)
	return nil
}

// InitializeRoutes registers all routes on the router.
func InitializeRoutes(r *gin.Engine) {
	r.GET("/healthz", handlers.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	{
		v1.POST("/transactions/validate", transactionHandler.Validate)

		surfaces := v1.Group("/surfaces/:surface")
		{
			surfaces.POST("/send", transactionHandler.Send)
			surfaces.GET("/events", transactionHandler.Events)
			surfaces.GET("/status", transactionHandler.Status)
			surfaces.POST("/cancel", transactionHandler.Cancel)
		}
	}
}
