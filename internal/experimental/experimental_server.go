package experimental

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ExperimentalServer экспериментальный QUIC сервер
type ExperimentalServer struct {
	logger      *zap.Logger
	config      *ExperimentalConfig
	ackManager  interface{}
	ccManager   *CongestionControlManager
	qlogTracer  *QlogTracer
	multipathMgr *MultipathManager
	fecManager  *FECManager
	mu          sync.RWMutex
	isActive    bool
}

// NewExperimentalServer создает новый экспериментальный сервер
func NewExperimentalServer(logger *zap.Logger, config *ExperimentalConfig, ackManager interface{}, ccManager *CongestionControlManager, qlogTracer *QlogTracer, multipathMgr *MultipathManager, fecManager *FECManager) *ExperimentalServer {
	return &ExperimentalServer{
		logger:      logger,
		config:      config,
		ackManager:  ackManager,
		ccManager:   ccManager,
		qlogTracer:  qlogTracer,
		multipathMgr: multipathMgr,
		fecManager:  fecManager,
	}
}

// Start запускает экспериментальный сервер
func (es *ExperimentalServer) Start(ctx context.Context) error {
	es.mu.Lock()
	defer es.mu.Unlock()
	
	if es.isActive {
		return fmt.Errorf("experimental server is already active")
	}
	
	es.logger.Info("Starting experimental QUIC server",
		zap.String("addr", es.config.Addr),
		zap.String("cc", es.config.CongestionControl))
	
	es.isActive = true
	
	// Здесь должна быть реальная реализация QUIC сервера
	// Пока просто симулируем работу
	go es.runServer(ctx)
	
	return nil
}

// Stop останавливает экспериментальный сервер
func (es *ExperimentalServer) Stop() {
	es.mu.Lock()
	defer es.mu.Unlock()
	
	if !es.isActive {
		return
	}
	
	es.isActive = false
	es.logger.Info("Experimental QUIC server stopped")
}

// runServer запускает сервер в горутине
func (es *ExperimentalServer) runServer(ctx context.Context) {
	es.logger.Info("Experimental server running")
	
	// Симулируем работу сервера
	<-ctx.Done()
	es.logger.Info("Experimental server stopped by context")
}
