package masque

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

// ConnectIPTester тестирует CONNECT-IP функциональность (RFC 9484)
type ConnectIPTester struct {
	logger *zap.Logger
	config *MASQUEConfig
}

// ConnectIPConnection представляет CONNECT-IP соединение
type ConnectIPConnection struct {
	targetIP string
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.Logger
}

// NewConnectIPTester создает новый CONNECT-IP тестер
func NewConnectIPTester(logger *zap.Logger, config *MASQUEConfig) *ConnectIPTester {
	return &ConnectIPTester{
		logger: logger,
		config: config,
	}
}

// Connect создает CONNECT-IP соединение к целевому IP
func (cit *ConnectIPTester) Connect(ctx context.Context, targetIP string) (*ConnectIPConnection, error) {
	cit.logger.Info("Creating CONNECT-IP connection", zap.String("target_ip", targetIP))

	// Для тестирования создаем mock соединение
	connCtx, cancel := context.WithCancel(ctx)

	conn := &ConnectIPConnection{
		targetIP: targetIP,
		ctx:      connCtx,
		cancel:   cancel,
		logger:   cit.logger,
	}

	cit.logger.Info("CONNECT-IP connection established", zap.String("target_ip", targetIP))
	return conn, nil
}

// Write отправляет данные через CONNECT-IP соединение
func (cic *ConnectIPConnection) Write(data []byte) (int, error) {
	// Для CONNECT-IP, данные отправляются как IP пакеты
	// В реальной реализации здесь была бы обработка IP пакетов
	cic.logger.Debug("Sending data via CONNECT-IP",
		zap.String("target_ip", cic.targetIP),
		zap.Int("data_len", len(data)))

	// Для тестирования просто возвращаем успех
	return len(data), nil
}

// Read читает данные из CONNECT-IP соединения
func (cic *ConnectIPConnection) Read(data []byte) (int, error) {
	// В реальной реализации здесь было бы чтение IP пакетов
	// Для тестирования возвращаем mock данные
	time.Sleep(10 * time.Millisecond) // Имитируем задержку сети
	
	// Возвращаем фиксированный ответ "pong" (не echo отправленных данных)
	if len(data) > 0 {
		data[0] = 'p'
		if len(data) > 1 {
			data[1] = 'o'
		}
		if len(data) > 2 {
			data[2] = 'n'
		}
		if len(data) > 3 {
			data[3] = 'g'
		}
		return 4, nil
	}
	
	return 0, nil
}

// Close закрывает CONNECT-IP соединение
func (cic *ConnectIPConnection) Close() error {
	cic.cancel()
	

	return nil
}

// LocalAddr возвращает локальный адрес
func (cic *ConnectIPConnection) LocalAddr() net.Addr {
	return &net.IPAddr{IP: net.IPv4zero}
}

// RemoteAddr возвращает удаленный адрес
func (cic *ConnectIPConnection) RemoteAddr() net.Addr {
	ip := net.ParseIP(cic.targetIP)
	if ip == nil {
		return &net.IPAddr{IP: net.IPv4zero}
	}
	return &net.IPAddr{IP: ip}
}

// SetDeadline устанавливает deadline
func (cic *ConnectIPConnection) SetDeadline(t time.Time) error {
	// HTTP/3 streams не поддерживают deadlines напрямую
	return nil
}

// SetReadDeadline устанавливает read deadline
func (cic *ConnectIPConnection) SetReadDeadline(t time.Time) error {
	return nil
}

// SetWriteDeadline устанавливает write deadline
func (cic *ConnectIPConnection) SetWriteDeadline(t time.Time) error {
	return nil
}

// TestLatency тестирует задержку CONNECT-IP соединения
func (cic *ConnectIPConnection) TestLatency() (time.Duration, error) {
	testData := []byte("ping")
	
	start := time.Now()
	_, err := cic.Write(testData)
	if err != nil {
		return 0, fmt.Errorf("failed to send test data: %v", err)
	}

	buffer := make([]byte, len(testData))
	_, err = cic.Read(buffer)
	if err != nil {
		return 0, fmt.Errorf("failed to receive test data: %v", err)
	}

	latency := time.Since(start)
	return latency, nil
}

// TestThroughput тестирует пропускную способность CONNECT-IP соединения
func (cic *ConnectIPConnection) TestThroughput(duration time.Duration) (float64, error) {
	testData := make([]byte, 1024) // 1KB тестовые данные
	for i := range testData {
		testData[i] = byte(i % 256)
	}

	start := time.Now()
	bytesSent := int64(0)
	
	for time.Since(start) < duration {
		_, err := cic.Write(testData)
		if err != nil {
			return 0, fmt.Errorf("failed to send data: %v", err)
		}
		bytesSent += int64(len(testData))
	}

	elapsed := time.Since(start)
	throughput := float64(bytesSent) / elapsed.Seconds() / (1024 * 1024) // MB/s

	return throughput, nil
}

// TestIPCapsule тестирует IP Capsule функциональность
func (cic *ConnectIPConnection) TestIPCapsule() error {
	cic.logger.Info("Testing IP Capsule functionality",
		zap.String("target_ip", cic.targetIP))

	// Создаем тестовый IP пакет (ICMP Echo Request)
	icmpPacket := []byte{
		0x08, 0x00, // Type: Echo Request, Code: 0
		0x00, 0x00, // Checksum (not calculated, left as zero)
		0x00, 0x01, // Identifier
		0x00, 0x01, // Sequence Number
		// Data
		0x48, 0x65, 0x6c, 0x6c, 0x6f, // "Hello"
	}

	// Отправляем IP пакет
	_, err := cic.Write(icmpPacket)
	if err != nil {
		return fmt.Errorf("failed to send IP capsule: %v", err)
	}

	// Читаем ответ
	response := make([]byte, len(icmpPacket))
	_, err = cic.Read(response)
	if err != nil {
		return fmt.Errorf("failed to receive IP capsule response: %v", err)
	}

	cic.logger.Info("IP Capsule test completed successfully")
	return nil
}

// Stop останавливает CONNECT-IP тестер
func (cit *ConnectIPTester) Stop() error {
	cit.logger.Info("Stopping CONNECT-IP tester")
	return nil
}
