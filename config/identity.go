package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spiffe/go-spiffe/v2/spiffeid"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/dep2p/go-peermeta/pkg/types"
)

// IdentityConfig 本端身份配置
//
// 描述本端自报的工作负载属性，交换时写出、传播时注入请求头。
// Identity 为空且同时配置了 TrustDomain 与 ServiceAccount 时，
// 按 spiffe://<trust-domain>/ns/<namespace>/sa/<service-account> 生成。
type IdentityConfig struct {
	InstanceName      string             `json:"instance_name,omitempty" yaml:"instance_name,omitempty"`
	Cluster           string             `json:"cluster,omitempty" yaml:"cluster,omitempty"`
	Namespace         string             `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	WorkloadName      string             `json:"workload_name,omitempty" yaml:"workload_name,omitempty"`
	WorkloadType      types.WorkloadType `json:"workload_type" yaml:"workload_type"`
	CanonicalName     string             `json:"canonical_name,omitempty" yaml:"canonical_name,omitempty"`
	CanonicalRevision string             `json:"canonical_revision,omitempty" yaml:"canonical_revision,omitempty"`
	AppName           string             `json:"app_name,omitempty" yaml:"app_name,omitempty"`
	AppVersion        string             `json:"app_version,omitempty" yaml:"app_version,omitempty"`
	Identity          string             `json:"identity,omitempty" yaml:"identity,omitempty"`
	TrustDomain       string             `json:"trust_domain,omitempty" yaml:"trust_domain,omitempty"`
	ServiceAccount    string             `json:"service_account,omitempty" yaml:"service_account,omitempty"`
	Region            string             `json:"region,omitempty" yaml:"region,omitempty"`
	Zone              string             `json:"zone,omitempty" yaml:"zone,omitempty"`
	Owner             string             `json:"owner,omitempty" yaml:"owner,omitempty"`
	PlatformMetadata  map[string]string  `json:"platform_metadata,omitempty" yaml:"platform_metadata,omitempty"`
	AppContainers     []string           `json:"app_containers,omitempty" yaml:"app_containers,omitempty"`
	InstanceIPs       []string           `json:"instance_ips,omitempty" yaml:"instance_ips,omitempty"`
}

// DefaultIdentityConfig 返回默认身份配置（全部为空，类型 Pod）
func DefaultIdentityConfig() IdentityConfig {
	return IdentityConfig{
		WorkloadType: types.WorkloadPod,
	}
}

// Validate 验证身份配置
func (c IdentityConfig) Validate() error {
	if !c.WorkloadType.Valid() {
		return fmt.Errorf("%w: %d", types.ErrUnknownWorkloadType, int(c.WorkloadType))
	}
	if c.Namespace != "" {
		if errs := validation.IsDNS1123Label(c.Namespace); len(errs) > 0 {
			return fmt.Errorf("invalid namespace %q: %s", c.Namespace, strings.Join(errs, "; "))
		}
	}
	if c.Identity != "" {
		if _, err := spiffeid.FromString(c.Identity); err != nil {
			return fmt.Errorf("invalid identity %q: %w", c.Identity, err)
		}
	}
	if c.TrustDomain != "" {
		if _, err := spiffeid.TrustDomainFromString(c.TrustDomain); err != nil {
			return fmt.Errorf("invalid trust domain %q: %w", c.TrustDomain, err)
		}
	}
	if c.ServiceAccount != "" && c.TrustDomain == "" && c.Identity == "" {
		return errors.New("service_account requires trust_domain")
	}
	return nil
}

// Peer 构造本端 PeerIdentity
func (c IdentityConfig) Peer() (*types.PeerIdentity, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	identity := c.Identity
	if identity == "" && c.TrustDomain != "" && c.ServiceAccount != "" && c.Namespace != "" {
		id, err := BuildSPIFFEIdentity(c.TrustDomain, c.Namespace, c.ServiceAccount)
		if err != nil {
			return nil, err
		}
		identity = id
	}
	instance := c.InstanceName
	if instance == "" && c.WorkloadType.HasInstanceName() {
		instance = c.WorkloadName
	}
	return &types.PeerIdentity{
		InstanceName:      instance,
		ClusterName:       c.Cluster,
		NamespaceName:     c.Namespace,
		WorkloadName:      c.WorkloadName,
		CanonicalName:     c.CanonicalName,
		CanonicalRevision: c.CanonicalRevision,
		AppName:           c.AppName,
		AppVersion:        c.AppVersion,
		WorkloadType:      c.WorkloadType,
		Identity:          identity,
		Region:            c.Region,
		Zone:              c.Zone,
		Owner:             c.Owner,
		PlatformMetadata:  maps.Clone(c.PlatformMetadata),
		AppContainers:     slices.Clone(c.AppContainers),
		InstanceIPs:       slices.Clone(c.InstanceIPs),
	}, nil
}

// BuildSPIFFEIdentity 按 Kubernetes 约定生成 SPIFFE ID
//
//	spiffe://<trust-domain>/ns/<namespace>/sa/<service-account>
func BuildSPIFFEIdentity(trustDomain, namespace, serviceAccount string) (string, error) {
	td, err := spiffeid.TrustDomainFromString(trustDomain)
	if err != nil {
		return "", fmt.Errorf("invalid trust domain %q: %w", trustDomain, err)
	}
	id, err := spiffeid.FromSegments(td, "ns", namespace, "sa", serviceAccount)
	if err != nil {
		return "", fmt.Errorf("build spiffe id: %w", err)
	}
	return id.String(), nil
}
