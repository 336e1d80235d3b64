package types

import (
	"fmt"
	"strings"
)

// ============================================================================
//                              WorkloadType - 工作负载类型
// ============================================================================

// WorkloadType 工作负载类型
//
// 决定 InstanceName 与 WorkloadName 哪一个是"拥有者"名称：
// Pod/Job 带有实例名（与工作负载名相同），Deployment/CronJob 没有。
type WorkloadType int

const (
	// WorkloadPod Pod（默认）
	WorkloadPod WorkloadType = iota
	// WorkloadDeployment Deployment
	WorkloadDeployment
	// WorkloadJob Job
	WorkloadJob
	// WorkloadCronJob CronJob
	WorkloadCronJob
)

// String 返回工作负载类型的字符串表示
func (t WorkloadType) String() string {
	switch t {
	case WorkloadPod:
		return "Pod"
	case WorkloadDeployment:
		return "Deployment"
	case WorkloadJob:
		return "Job"
	case WorkloadCronJob:
		return "CronJob"
	default:
		return fmt.Sprintf("WorkloadType(%d)", int(t))
	}
}

// Valid 是否为已知类型
func (t WorkloadType) Valid() bool {
	return t >= WorkloadPod && t <= WorkloadCronJob
}

// HasInstanceName 该类型是否携带实例名
func (t WorkloadType) HasInstanceName() bool {
	return t == WorkloadPod || t == WorkloadJob
}

// ParseWorkloadType 解析工作负载类型（大小写不敏感）
func ParseWorkloadType(s string) (WorkloadType, error) {
	switch strings.ToLower(s) {
	case "", "pod":
		return WorkloadPod, nil
	case "deployment":
		return WorkloadDeployment, nil
	case "job":
		return WorkloadJob, nil
	case "cronjob":
		return WorkloadCronJob, nil
	default:
		return WorkloadPod, fmt.Errorf("%w: %q", ErrUnknownWorkloadType, s)
	}
}

// MarshalText 实现 encoding.TextMarshaler，用于配置文件
func (t WorkloadType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownWorkloadType, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (t *WorkloadType) UnmarshalText(b []byte) error {
	v, err := ParseWorkloadType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ============================================================================
//                              Direction - 发现方向
// ============================================================================

// Direction 对端所在方向
type Direction int

const (
	// Downstream 下游（来自客户端）
	Downstream Direction = iota
	// Upstream 上游（服务端一侧的对端）
	Upstream
)

// String 返回方向的字符串表示
func (d Direction) String() string {
	switch d {
	case Downstream:
		return "downstream"
	case Upstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// StateKey 返回该方向在共享状态中的存储键
func (d Direction) StateKey() string {
	if d == Upstream {
		return UpstreamPeerKey
	}
	return DownstreamPeerKey
}

// ParseDirection 解析方向字符串
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "downstream", "":
		return Downstream, nil
	case "upstream":
		return Upstream, nil
	default:
		return Downstream, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
