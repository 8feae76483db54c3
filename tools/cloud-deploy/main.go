package main

import (
	"flag"
	"fmt"
	"log"
	"time"
)

// CloudProvider тип облачного провайдера
type CloudProvider string

const (
	AWS     CloudProvider = "aws"
	Azure   CloudProvider = "azure"
	GCP     CloudProvider = "gcp"
	DigitalOcean CloudProvider = "digitalocean"
	Linode  CloudProvider = "linode"
)

// CloudConfig конфигурация для облачного развертывания
type CloudConfig struct {
	Provider     CloudProvider `json:"provider"`
	Region       string        `json:"region"`
	InstanceType string        `json:"instance_type"`
	
	// Scaling configuration
	MinInstances int `json:"min_instances"`
	MaxInstances int `json:"max_instances"`
	AutoScale    bool `json:"auto_scale"`
	
	// Network configuration
	VPCID        string `json:"vpc_id"`
	SubnetID     string `json:"subnet_id"`
	SecurityGroupID string `json:"security_group_id"`
	
	// Load balancer configuration
	LoadBalancerType string `json:"load_balancer_type"` // ALB, NLB, GCP LB, etc.
	SSLEnabled      bool   `json:"ssl_enabled"`
	DomainName      string `json:"domain_name"`
	
	// Monitoring configuration
	EnableMonitoring bool `json:"enable_monitoring"`
	LogLevel        string `json:"log_level"`
	MetricsInterval  time.Duration `json:"metrics_interval"`
	
	// Security configuration
	EnableFirewall bool `json:"enable_firewall"`
	AllowedPorts   []int `json:"allowed_ports"`
	SSHKeyName     string `json:"ssh_key_name"`
}

// CloudDeployment статус развертывания в облаке
type CloudDeployment struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Status       DeploymentStatus       `json:"status"`
	Config       CloudConfig            `json:"config"`
	Instances    []CloudInstance        `json:"instances"`
	LoadBalancer *LoadBalancer          `json:"load_balancer,omitempty"`
	Monitoring   *MonitoringSetup       `json:"monitoring,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	Details      map[string]interface{} `json:"details"`
}

// DeploymentStatus статус развертывания
type DeploymentStatus string

const (
	DeploymentPending    DeploymentStatus = "pending"
	DeploymentCreating   DeploymentStatus = "creating"
	DeploymentRunning    DeploymentStatus = "running"
	DeploymentScaling    DeploymentStatus = "scaling"
	DeploymentStopping   DeploymentStatus = "stopping"
	DeploymentStopped    DeploymentStatus = "stopped"
	DeploymentError      DeploymentStatus = "error"
)

// CloudInstance облачный инстанс
type CloudInstance struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	PublicIP     string    `json:"public_ip"`
	PrivateIP    string    `json:"private_ip"`
	InstanceType string    `json:"instance_type"`
	Region       string    `json:"region"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoadBalancer конфигурация балансировщика нагрузки
type LoadBalancer struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	DNSName      string `json:"dns_name"`
	Port         int    `json:"port"`
	HealthCheck  string `json:"health_check"`
	SSLEnabled   bool   `json:"ssl_enabled"`
	Certificate  string `json:"certificate,omitempty"`
}

// MonitoringSetup настройка мониторинга
type MonitoringSetup struct {
	Enabled      bool     `json:"enabled"`
	Provider     string   `json:"provider"` // CloudWatch, Azure Monitor, Stackdriver
	Metrics      []string `json:"metrics"`
	Alerts       []Alert  `json:"alerts"`
	DashboardURL string   `json:"dashboard_url"`
}

// Alert конфигурация алерта
type Alert struct {
	Name        string  `json:"name"`
	Metric      string  `json:"metric"`
	Threshold   float64 `json:"threshold"`
	Operator    string  `json:"operator"` // >, <, >=, <=, ==
	Action      string  `json:"action"`    // email, webhook, scale
	Enabled     bool    `json:"enabled"`
}

// CloudManager менеджер облачных развертываний
type CloudManager struct {
	provider CloudProvider
	config   CloudConfig
}

// NewCloudManager создает новый менеджер облачных развертываний
func NewCloudManager(provider CloudProvider, config CloudConfig) *CloudManager {
	return &CloudManager{
		provider: provider,
		config:   config,
	}
}

// Deploy развертывает QUIC тестер в облаке
func (cm *CloudManager) Deploy(name string) (*CloudDeployment, error) {
	log.Printf("🚀 Deploying QUIC tester to %s cloud...", cm.provider)

	deployment := &CloudDeployment{
		ID:        generateDeploymentID(),
		Name:      name,
		Status:    DeploymentCreating,
		Config:    cm.config,
		CreatedAt: time.Now(),
		Details:   make(map[string]interface{}),
	}

	// Simulate deployment process
	log.Printf("📋 Creating instances...")
	time.Sleep(2 * time.Second)
	
	// Create mock instances
	instances := []CloudInstance{
		{
			ID:           "i-1234567890abcdef0",
			Name:         fmt.Sprintf("%s-instance-1", name),
			Status:       "running",
			PublicIP:     "203.0.113.1",
			PrivateIP:    "10.0.1.10",
			InstanceType: cm.config.InstanceType,
			Region:       cm.config.Region,
			CreatedAt:    time.Now(),
		},
	}
	deployment.Instances = instances

	// Setup load balancer
	if cm.config.LoadBalancerType != "" {
		log.Printf("⚖️  Setting up load balancer...")
		time.Sleep(1 * time.Second)
		
		deployment.LoadBalancer = &LoadBalancer{
			ID:          "lb-" + deployment.ID,
			Type:        cm.config.LoadBalancerType,
			DNSName:     fmt.Sprintf("quic-fecer-%s.example.com", deployment.ID),
			Port:        443,
			HealthCheck: "/health",
			SSLEnabled:  cm.config.SSLEnabled,
		}
	}

	// Setup monitoring
	if cm.config.EnableMonitoring {
		log.Printf("📊 Setting up monitoring...")
		time.Sleep(1 * time.Second)
		
		deployment.Monitoring = &MonitoringSetup{
			Enabled:  true,
			Provider: string(cm.provider),
			Metrics:  []string{"cpu", "memory", "network", "quic_connections"},
			Alerts: []Alert{
				{
					Name:      "High CPU Usage",
					Metric:    "cpu_usage",
					Threshold: 80.0,
					Operator:  ">",
					Action:    "scale",
					Enabled:   true,
				},
			},
			DashboardURL: fmt.Sprintf("https://monitoring.example.com/dashboard/%s", deployment.ID),
		}
	}

	deployment.Status = DeploymentRunning
	deployment.UpdatedAt = time.Now()

	log.Printf("✅ Deployment completed: %s", deployment.ID)
	return deployment, nil
}

// Scale масштабирует развертывание
func (cm *CloudManager) Scale(deployment *CloudDeployment, targetInstances int) error {
	if !cm.config.AutoScale {
		return fmt.Errorf("auto-scaling is disabled")
	}

	if targetInstances < cm.config.MinInstances || targetInstances > cm.config.MaxInstances {
		return fmt.Errorf("target instances (%d) is outside allowed range (%d-%d)", 
			targetInstances, cm.config.MinInstances, cm.config.MaxInstances)
	}

	log.Printf("📈 Scaling deployment to %d instances...", targetInstances)

	deployment.Status = DeploymentScaling

	// Simulate scaling
	time.Sleep(2 * time.Second)

	// Update instances (simplified)
	currentInstances := len(deployment.Instances)
	if targetInstances > currentInstances {
		// Scale up
		for i := currentInstances; i < targetInstances; i++ {
			instance := CloudInstance{
				ID:           fmt.Sprintf("i-1234567890abcdef%d", i),
				Name:         fmt.Sprintf("%s-instance-%d", deployment.Name, i+1),
				Status:       "running",
				PublicIP:     fmt.Sprintf("203.0.113.%d", i+1),
				PrivateIP:    fmt.Sprintf("10.0.1.%d", 10+i),
				InstanceType: cm.config.InstanceType,
				Region:       cm.config.Region,
				CreatedAt:    time.Now(),
			}
			deployment.Instances = append(deployment.Instances, instance)
		}
	} else if targetInstances < currentInstances {
		// Scale down
		deployment.Instances = deployment.Instances[:targetInstances]
	}

	deployment.Status = DeploymentRunning
	deployment.UpdatedAt = time.Now()

	log.Printf("✅ Scaling completed: %d instances", len(deployment.Instances))
	return nil
}

// Stop останавливает развертывание
func (cm *CloudManager) Stop(deployment *CloudDeployment) error {
	log.Printf("🛑 Stopping deployment: %s", deployment.ID)

	deployment.Status = DeploymentStopping

	// Simulate stopping
	time.Sleep(2 * time.Second)

	// Update instance statuses
	for i := range deployment.Instances {
		deployment.Instances[i].Status = "stopped"
	}

	deployment.Status = DeploymentStopped
	deployment.UpdatedAt = time.Now()

	log.Printf("✅ Deployment stopped: %s", deployment.ID)
	return nil
}

// GetStatus возвращает статус развертывания
func (cm *CloudManager) GetStatus(deployment *CloudDeployment) *CloudDeployment {
	// Simulate status check
	time.Sleep(500 * time.Millisecond)
	
	deployment.UpdatedAt = time.Now()
	return deployment
}

// Helper functions

func generateDeploymentID() string {
	return fmt.Sprintf("quic-%d", time.Now().Unix())
}

// CloudDeploymentManager глобальный менеджер развертываний
type CloudDeploymentManager struct {
	deployments map[string]*CloudDeployment
}

// NewCloudDeploymentManager создает новый глобальный менеджер
func NewCloudDeploymentManager() *CloudDeploymentManager {
	return &CloudDeploymentManager{
		deployments: make(map[string]*CloudDeployment),
	}
}

// DeployToCloud развертывает в облаке
func (cdm *CloudDeploymentManager) DeployToCloud(provider CloudProvider, config CloudConfig, name string) (*CloudDeployment, error) {
	manager := NewCloudManager(provider, config)
	deployment, err := manager.Deploy(name)
	if err != nil {
		return nil, err
	}

	cdm.deployments[deployment.ID] = deployment
	return deployment, nil
}

// GetDeployment возвращает развертывание по ID
func (cdm *CloudDeploymentManager) GetDeployment(id string) (*CloudDeployment, bool) {
	deployment, exists := cdm.deployments[id]
	return deployment, exists
}

// ListDeployments возвращает список всех развертываний
func (cdm *CloudDeploymentManager) ListDeployments() []*CloudDeployment {
	deployments := make([]*CloudDeployment, 0, len(cdm.deployments))
	for _, deployment := range cdm.deployments {
		deployments = append(deployments, deployment)
	}
	return deployments
}

func main() {
	var (
		provider        = flag.String("provider", "aws", "Cloud provider (aws, azure, gcp, digitalocean, linode)")
		region          = flag.String("region", "us-east-1", "Cloud region")
		instanceType    = flag.String("instance-type", "t3.medium", "Instance type")
		minInstances    = flag.Int("min-instances", 1, "Minimum number of instances")
		maxInstances    = flag.Int("max-instances", 5, "Maximum number of instances")
		autoScale       = flag.Bool("auto-scale", true, "Enable auto-scaling")
		loadBalancer    = flag.String("load-balancer", "ALB", "Load balancer type")
		sslEnabled      = flag.Bool("ssl", true, "Enable SSL/TLS")
		domainName      = flag.String("domain", "", "Domain name for the deployment")
		enableMonitoring = flag.Bool("monitoring", true, "Enable monitoring")
		enableFirewall  = flag.Bool("firewall", true, "Enable firewall")
		sshKeyName      = flag.String("ssh-key", "", "SSH key name")
		name            = flag.String("name", "quic-fecer", "Deployment name")
		action          = flag.String("action", "deploy", "Action (deploy, scale, stop, status)")
		deploymentID    = flag.String("deployment-id", "", "Deployment ID for scale/stop/status actions")
		targetInstances = flag.Int("target-instances", 0, "Target number of instances for scaling")
	)
	flag.Parse()

	fmt.Println("☁️  QUIC Cloud Deployment")
	fmt.Println("=========================")

	// Create cloud config
	config := CloudConfig{
		Provider:        CloudProvider(*provider),
		Region:          *region,
		InstanceType:    *instanceType,
		MinInstances:    *minInstances,
		MaxInstances:    *maxInstances,
		AutoScale:       *autoScale,
		LoadBalancerType: *loadBalancer,
		SSLEnabled:      *sslEnabled,
		DomainName:      *domainName,
		EnableMonitoring: *enableMonitoring,
		EnableFirewall:  *enableFirewall,
		SSHKeyName:      *sshKeyName,
	}

	// Create deployment manager
	manager := NewCloudDeploymentManager()

	switch *action {
	case "deploy":
		deployToCloud(manager, config, *name)
	case "scale":
		scaleDeployment(manager, *deploymentID, *targetInstances)
	case "stop":
		stopDeployment(manager, *deploymentID)
	case "status":
		getDeploymentStatus(manager, *deploymentID)
	case "list":
		listDeployments(manager)
	default:
		log.Fatalf("Unknown action: %s", *action)
	}
}

func deployToCloud(manager *CloudDeploymentManager, config CloudConfig, name string) {
	fmt.Printf("🚀 Deploying to %s cloud...\n", config.Provider)
	fmt.Printf("  Region: %s\n", config.Region)
	fmt.Printf("  Instance Type: %s\n", config.InstanceType)
	fmt.Printf("  Instances: %d-%d\n", config.MinInstances, config.MaxInstances)
	fmt.Printf("  Auto-scaling: %v\n", config.AutoScale)
	fmt.Printf("  Load Balancer: %s\n", config.LoadBalancerType)
	fmt.Printf("  SSL: %v\n", config.SSLEnabled)
	fmt.Printf("  Monitoring: %v\n", config.EnableMonitoring)

	deployment, err := manager.DeployToCloud(config.Provider, config, name)
	if err != nil {
		log.Fatalf("Failed to deploy: %v", err)
	}

	fmt.Printf("\n✅ Deployment successful!\n")
	fmt.Printf("Deployment ID: %s\n", deployment.ID)
	fmt.Printf("Status: %s\n", deployment.Status)
	fmt.Printf("Created: %s\n", deployment.CreatedAt.Format(time.RFC3339))

	if len(deployment.Instances) > 0 {
		fmt.Printf("\n📋 Instances:\n")
		for _, instance := range deployment.Instances {
			fmt.Printf("  %s: %s (%s) - %s\n", 
				instance.ID, instance.Name, instance.PublicIP, instance.Status)
		}
	}

	if deployment.LoadBalancer != nil {
		fmt.Printf("\n⚖️  Load Balancer:\n")
		fmt.Printf("  ID: %s\n", deployment.LoadBalancer.ID)
		fmt.Printf("  Type: %s\n", deployment.LoadBalancer.Type)
		fmt.Printf("  DNS: %s\n", deployment.LoadBalancer.DNSName)
		fmt.Printf("  Port: %d\n", deployment.LoadBalancer.Port)
		fmt.Printf("  SSL: %v\n", deployment.LoadBalancer.SSLEnabled)
	}

	if deployment.Monitoring != nil {
		fmt.Printf("\n📊 Monitoring:\n")
		fmt.Printf("  Provider: %s\n", deployment.Monitoring.Provider)
		fmt.Printf("  Dashboard: %s\n", deployment.Monitoring.DashboardURL)
		fmt.Printf("  Alerts: %d\n", len(deployment.Monitoring.Alerts))
	}
}

func scaleDeployment(manager *CloudDeploymentManager, deploymentID string, targetInstances int) {
	if deploymentID == "" {
		log.Fatal("Deployment ID is required for scaling")
	}

	deployment, exists := manager.GetDeployment(deploymentID)
	if !exists {
		log.Fatalf("Deployment %s not found", deploymentID)
	}

	fmt.Printf("📈 Scaling deployment %s to %d instances...\n", deploymentID, targetInstances)

	// Get the appropriate cloud manager
	config := deployment.Config
	cloudManager := NewCloudManager(config.Provider, config)

	if err := cloudManager.Scale(deployment, targetInstances); err != nil {
		log.Fatalf("Failed to scale deployment: %v", err)
	}

	fmt.Printf("✅ Scaling completed: %d instances\n", len(deployment.Instances))
}

func stopDeployment(manager *CloudDeploymentManager, deploymentID string) {
	if deploymentID == "" {
		log.Fatal("Deployment ID is required for stopping")
	}

	deployment, exists := manager.GetDeployment(deploymentID)
	if !exists {
		log.Fatalf("Deployment %s not found", deploymentID)
	}

	fmt.Printf("🛑 Stopping deployment %s...\n", deploymentID)

	// Get the appropriate cloud manager
	config := deployment.Config
	cloudManager := NewCloudManager(config.Provider, config)

	if err := cloudManager.Stop(deployment); err != nil {
		log.Fatalf("Failed to stop deployment: %v", err)
	}

	fmt.Printf("✅ Deployment stopped\n")
}

func getDeploymentStatus(manager *CloudDeploymentManager, deploymentID string) {
	if deploymentID == "" {
		log.Fatal("Deployment ID is required for status check")
	}

	deployment, exists := manager.GetDeployment(deploymentID)
	if !exists {
		log.Fatalf("Deployment %s not found", deploymentID)
	}

	fmt.Printf("📊 Deployment Status: %s\n", deploymentID)
	fmt.Printf("========================\n")
	fmt.Printf("Status: %s\n", deployment.Status)
	fmt.Printf("Provider: %s\n", deployment.Config.Provider)
	fmt.Printf("Region: %s\n", deployment.Config.Region)
	fmt.Printf("Created: %s\n", deployment.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Updated: %s\n", deployment.UpdatedAt.Format(time.RFC3339))

	fmt.Printf("\n📋 Instances (%d):\n", len(deployment.Instances))
	for _, instance := range deployment.Instances {
		fmt.Printf("  %s: %s (%s) - %s\n", 
			instance.ID, instance.Name, instance.PublicIP, instance.Status)
	}

	if deployment.LoadBalancer != nil {
		fmt.Printf("\n⚖️  Load Balancer:\n")
		fmt.Printf("  ID: %s\n", deployment.LoadBalancer.ID)
		fmt.Printf("  Type: %s\n", deployment.LoadBalancer.Type)
		fmt.Printf("  DNS: %s\n", deployment.LoadBalancer.DNSName)
		fmt.Printf("  Health: %s\n", deployment.LoadBalancer.HealthCheck)
	}
}

func listDeployments(manager *CloudDeploymentManager) {
	deployments := manager.ListDeployments()

	fmt.Printf("📋 Cloud Deployments (%d):\n", len(deployments))
	fmt.Printf("==========================\n")

	if len(deployments) == 0 {
		fmt.Println("No deployments found")
		return
	}

	for _, deployment := range deployments {
		fmt.Printf("ID: %s\n", deployment.ID)
		fmt.Printf("Name: %s\n", deployment.Name)
		fmt.Printf("Status: %s\n", deployment.Status)
		fmt.Printf("Provider: %s\n", deployment.Config.Provider)
		fmt.Printf("Instances: %d\n", len(deployment.Instances))
		fmt.Printf("Created: %s\n", deployment.CreatedAt.Format(time.RFC3339))
		fmt.Println("---")
	}
}
