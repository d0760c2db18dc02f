package nonce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// 默认有效期，与宿主端 nonce 生命周期保持一致
const defaultTTL = 12 * time.Hour

// Minter 防伪令牌生成器
// 令牌格式：<hex(hmac-sha256(action|expiry))>|<expiry-unix>
type Minter struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewMinter 创建令牌生成器
func NewMinter(secret string) *Minter {
	return &Minter{
		secret: []byte(secret),
		ttl:    defaultTTL,
		now:    time.Now,
	}
}

// Mint 为指定动作签发令牌
func (m *Minter) Mint(action string) string {
	expiry := m.now().Add(m.ttl).Unix()
	return fmt.Sprintf("%s|%d", m.sign(action, expiry), expiry)
}

// Verify 校验令牌：签名匹配（常量时间比较）且未过期
func (m *Minter) Verify(action, token string) bool {
	parts := strings.SplitN(token, "|", 2)
	if len(parts) != 2 {
		return false
	}

	var expiry int64
	if _, err := fmt.Sscanf(parts[1], "%d", &expiry); err != nil {
		return false
	}
	if m.now().Unix() > expiry {
		return false
	}

	expected := m.sign(action, expiry)
	return hmac.Equal([]byte(expected), []byte(parts[0]))
}

func (m *Minter) sign(action string, expiry int64) string {
	mac := hmac.New(sha256.New, m.secret)
	fmt.Fprintf(mac, "%s|%d", action, expiry)
	return hex.EncodeToString(mac.Sum(nil))
}
