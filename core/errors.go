package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - 配置错误：INVALID_CONFIG（超参数非法，构造期 fail-fast）
//   - 数据完整性错误：DATA_INTEGRITY（实体/关系 ID 越界）
//   - 形状错误：SHAPE_MISMATCH（张量/批次维度不一致）
//   - 存储错误：NOT_FOUND, NOT_SUPPORTED
type DomainError struct {
	Code    string // 错误代码（如 "INVALID_CONFIG", "DATA_INTEGRITY"）
	Message string // 错误消息
	Module  string // 模块名称（如 "kg", "ripple", "model"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*DomainError)
	return ok
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeInvalidConfig = "INVALID_CONFIG" // 超参数/配置非法（构造期 fail-fast）
	ErrorCodeDataIntegrity = "DATA_INTEGRITY" // 数据完整性错误（ID 越界等）
	ErrorCodeShapeMismatch = "SHAPE_MISMATCH" // 批次/张量形状不一致
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleKG     = "kg"     // 知识图谱索引模块
	ModuleRipple = "ripple" // Ripple Set 构建模块
	ModuleModel  = "model"  // 偏好传播模型模块
	ModuleTrain  = "train"  // 训练模块
	ModuleRank   = "rank"   // 推理/排序模块
	ModuleStore  = "store"  // 存储模块
	ModuleConfig = "config" // 配置模块
)

// 通用错误检查函数

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsInvalidConfig 检查错误是否为 INVALID_CONFIG
func IsInvalidConfig(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidConfig
	}
	return false
}

// IsDataIntegrity 检查错误是否为 DATA_INTEGRITY
func IsDataIntegrity(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeDataIntegrity
	}
	return false
}

// IsShapeMismatch 检查错误是否为 SHAPE_MISMATCH
func IsShapeMismatch(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeShapeMismatch
	}
	return false
}
