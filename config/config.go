// Package config 提供实验配置的加载与装配：
// 一份 YAML 描述模型超参、Ripple Set 构建参数与训练参数，
// 加载后可直接装配出 Builder / RippleNet / Trainer。
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/ripplekit/core"
	"github.com/rushteam/ripplekit/kg"
	"github.com/rushteam/ripplekit/model"
	"github.com/rushteam/ripplekit/ripple"
	"github.com/rushteam/ripplekit/train"
)

// Config 是一次实验的完整配置。
//
// 示例：
//
//	model:
//	  dim: 16
//	  n_hop: 2
//	  n_memory: 32
//	  kge_weight: 0.01
//	  l2_weight: 1e-7
//	  learning_rate: 0.02
//	  item_update_mode: plus_transform
//	  using_all_hops: true
//	  optimizer: adam
//	  seed: 42
//	ripple:
//	  seed: 555
//	  max_concurrent: 8
//	train:
//	  epochs: 10
//	  batch_size: 1024
type Config struct {
	Model  model.Config `yaml:"model"`
	Ripple RippleConfig `yaml:"ripple"`
	Train  TrainConfig  `yaml:"train"`
}

// RippleConfig 是 Ripple Set 构建参数。
// 跳数与每跳容量复用 model 段的 n_hop / n_memory，两处不会配出不一致。
type RippleConfig struct {
	Seed          int64 `yaml:"seed"`
	MaxConcurrent int   `yaml:"max_concurrent"`
}

// TrainConfig 是训练循环参数。
type TrainConfig struct {
	Epochs    int `yaml:"epochs"`
	BatchSize int `yaml:"batch_size"`
}

// Load 从 YAML 文件加载并校验配置。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("config: parse yaml: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验所有配置段，与编程式构造走同一条 fail-fast 错误路径。
func (c *Config) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return err
	}
	if c.Train.Epochs < 1 {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("config: train.epochs=%d, must be >= 1", c.Train.Epochs))
	}
	if c.Train.BatchSize < 1 {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("config: train.batch_size=%d, must be >= 1", c.Train.BatchSize))
	}
	return nil
}

// NewBuilder 按配置装配 Ripple Set 构建器。
func (c *Config) NewBuilder(index *kg.Index) (*ripple.Builder, error) {
	b, err := ripple.NewBuilder(index, c.Model.NumHops, c.Model.MemorySize, c.Ripple.Seed)
	if err != nil {
		return nil, err
	}
	if c.Ripple.MaxConcurrent > 0 {
		b.MaxConcurrent = c.Ripple.MaxConcurrent
	}
	return b, nil
}

// NewModel 按配置初始化模型参数并装配模型。
func (c *Config) NewModel(numEntity, numRelation int64) (*model.RippleNet, error) {
	params, err := model.NewParams(numEntity, numRelation, c.Model.Dim, c.Model.Seed)
	if err != nil {
		return nil, err
	}
	return model.New(c.Model, params)
}

// NewTrainer 按配置装配训练器。
func (c *Config) NewTrainer(m *model.RippleNet) (*train.Trainer, error) {
	return train.New(m, c.Train.Epochs, c.Train.BatchSize)
}
