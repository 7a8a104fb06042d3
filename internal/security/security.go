// Package security 提供 API 密钥校验和按客户端限流
package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

var (
	ErrMissingAPIKey = errors.New("API密钥未提供")
	ErrInvalidAPIKey = errors.New("无效的API密钥")
)

// KeyRing 静态 API 密钥集合，为空时不做校验
type KeyRing struct {
	hashes [][sha256.Size]byte
}

// NewKeyRing 创建密钥集合，忽略空白密钥
func NewKeyRing(keys []string) *KeyRing {
	kr := &KeyRing{}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		kr.hashes = append(kr.hashes, sha256.Sum256([]byte(k)))
	}
	return kr
}

// Enabled 是否配置了密钥
func (kr *KeyRing) Enabled() bool {
	return kr != nil && len(kr.hashes) > 0
}

// Validate 校验密钥，比较哈希以避免按长度泄露信息
func (kr *KeyRing) Validate(key string) error {
	if !kr.Enabled() {
		return nil
	}
	if key == "" {
		return ErrMissingAPIKey
	}
	sum := sha256.Sum256([]byte(key))
	for _, h := range kr.hashes {
		if subtle.ConstantTimeCompare(sum[:], h[:]) == 1 {
			return nil
		}
	}
	return ErrInvalidAPIKey
}

// ExtractAPIKey 从 Authorization: Bearer 或 X-API-Key 请求头提取密钥
func ExtractAPIKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

// ClientKey 限流使用的客户端标识：优先 X-Forwarded-For 的第一个地址
func ClientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimiter 滑动窗口限流器，按 key 分别计数
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter 创建限流器并启动后台清理，limit <= 0 表示不限流
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	if limit > 0 {
		go rl.cleanupLoop()
	}
	return rl
}

// Allow 检查 key 在当前窗口内是否还有配额
func (rl *RateLimiter) Allow(key string) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	valid := prune(rl.requests[key], now.Add(-rl.window))
	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}
	rl.requests[key] = append(valid, now)
	return true
}

// Stop 停止后台清理
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	windowStart := rl.now().Add(-rl.window)
	for key, reqs := range rl.requests {
		if valid := prune(reqs, windowStart); len(valid) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = valid
		}
	}
}

// prune 丢弃窗口开始之前的请求，时间戳按升序排列
func prune(reqs []time.Time, windowStart time.Time) []time.Time {
	i := 0
	for i < len(reqs) && !reqs[i].After(windowStart) {
		i++
	}
	return reqs[i:]
}
