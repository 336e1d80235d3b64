package config

// DefaultPassthroughCluster 默认跳过传播的透传集群名
const DefaultPassthroughCluster = "PassthroughCluster"

// PropagationConfig 传播链配置
type PropagationConfig struct {
	// Downstream 向下游（响应方向）传播的方法
	Downstream []string `json:"downstream" yaml:"downstream"`

	// Upstream 向上游（请求方向）传播的方法
	Upstream []string `json:"upstream" yaml:"upstream"`

	// SkipExternalClusters 不向标记为外部的集群传播
	SkipExternalClusters bool `json:"skip_external_clusters" yaml:"skip_external_clusters"`

	// SkipClusters 不传播的集群名
	SkipClusters []string `json:"skip_clusters,omitempty" yaml:"skip_clusters,omitempty"`
}

// DefaultPropagationConfig 返回默认传播配置
func DefaultPropagationConfig() PropagationConfig {
	return PropagationConfig{
		Downstream:           []string{MethodMXHeaders},
		Upstream:             []string{MethodBaggage, MethodMXHeaders},
		SkipExternalClusters: true,
		SkipClusters:         []string{DefaultPassthroughCluster},
	}
}

// Validate 验证传播配置
func (c PropagationConfig) Validate() error {
	for _, list := range [][]string{c.Downstream, c.Upstream} {
		if err := validateMethods(list, MethodBaggage, MethodMXHeaders); err != nil {
			return err
		}
	}
	return nil
}
