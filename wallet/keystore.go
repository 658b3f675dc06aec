package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
)

// ErrInvalidPassword 密码错误（MAC 校验失败）
var ErrInvalidPassword = errors.New("invalid keystore password")

const (
	keystoreVersion = 1
	kdfIterations   = 262144
	kdfKeyLen       = 32
)

// Keystore Keystore 文件结构（加密保存钱包助记词）
type Keystore struct {
	Version int    `json:"version"`
	ID      string `json:"id"`
	Address string `json:"address"`
	Crypto  Crypto `json:"crypto"`
}

// Crypto 加密信息
type Crypto struct {
	Cipher       string       `json:"cipher"`
	CipherText   string       `json:"ciphertext"`
	CipherParams CipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"`
	KDFParams    KDFParams    `json:"kdfparams"`
	MAC          string       `json:"mac"`
}

// CipherParams 加密参数
type CipherParams struct {
	IV string `json:"iv"`
}

// KDFParams PBKDF2 参数
type KDFParams struct {
	C     int    `json:"c"`
	DKLen int    `json:"dklen"`
	PRF   string `json:"prf"`
	Salt  string `json:"salt"`
}

// KeystoreManager Keystore 管理器
type KeystoreManager struct {
	keystoreDir string
	iterations  int
}

// NewKeystoreManager 创建 Keystore 管理器
func NewKeystoreManager(keystoreDir string) (*KeystoreManager, error) {
	if err := os.MkdirAll(keystoreDir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}

	return &KeystoreManager{
		keystoreDir: keystoreDir,
		iterations:  kdfIterations,
	}, nil
}

// Path 返回钱包地址对应的 keystore 文件路径
func (km *KeystoreManager) Path(address string) string {
	return filepath.Join(km.keystoreDir, fmt.Sprintf("%s.json", address))
}

// Save 加密保存助记词
//
// 文件以钱包地址命名；助记词在写入前会校验能否派生出同一地址。
func (km *KeystoreManager) Save(mnemonic string, password string) (string, error) {
	w, err := NewWalletFromMnemonic(mnemonic)
	if err != nil {
		return "", err
	}
	addr := w.Address().String()

	salt := make([]byte, 32)
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	key := deriveKey(password, salt, km.iterations)

	plaintext := []byte(strings.Join(strings.Fields(mnemonic), " "))
	ciphertext, err := xorAESCTR(key[:16], plaintext, iv)
	if err != nil {
		return "", fmt.Errorf("encrypt mnemonic: %w", err)
	}

	keystore := &Keystore{
		Version: keystoreVersion,
		ID:      uuid.New().String(),
		Address: addr,
		Crypto: Crypto{
			Cipher:       "aes-128-ctr",
			CipherText:   hex.EncodeToString(ciphertext),
			CipherParams: CipherParams{IV: hex.EncodeToString(iv)},
			KDF:          "pbkdf2",
			KDFParams: KDFParams{
				C:     km.iterations,
				DKLen: kdfKeyLen,
				PRF:   "hmac-sha256",
				Salt:  hex.EncodeToString(salt),
			},
			MAC: hex.EncodeToString(computeMAC(key[16:], ciphertext)),
		},
	}

	data, err := json.MarshalIndent(keystore, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode keystore: %w", err)
	}

	keystorePath := km.Path(addr)
	if err := os.WriteFile(keystorePath, data, 0600); err != nil {
		return "", fmt.Errorf("write keystore file: %w", err)
	}
	return keystorePath, nil
}

// Load 从 Keystore 解密助记词
func (km *KeystoreManager) Load(address string, password string) (string, error) {
	return LoadKeystoreFile(km.Path(address), password)
}

// LoadKeystoreFile 从指定文件解密助记词
func LoadKeystoreFile(path string, password string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read keystore file: %w", err)
	}

	var keystore Keystore
	if err := json.Unmarshal(data, &keystore); err != nil {
		return "", fmt.Errorf("decode keystore: %w", err)
	}
	if keystore.Version != keystoreVersion {
		return "", fmt.Errorf("unsupported keystore version: %d", keystore.Version)
	}
	if keystore.Crypto.KDF != "pbkdf2" || keystore.Crypto.Cipher != "aes-128-ctr" {
		return "", fmt.Errorf("unsupported keystore crypto: %s/%s", keystore.Crypto.KDF, keystore.Crypto.Cipher)
	}

	salt, err := hex.DecodeString(keystore.Crypto.KDFParams.Salt)
	if err != nil {
		return "", fmt.Errorf("decode salt: %w", err)
	}
	iv, err := hex.DecodeString(keystore.Crypto.CipherParams.IV)
	if err != nil {
		return "", fmt.Errorf("decode iv: %w", err)
	}
	ciphertext, err := hex.DecodeString(keystore.Crypto.CipherText)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	mac, err := hex.DecodeString(keystore.Crypto.MAC)
	if err != nil {
		return "", fmt.Errorf("decode mac: %w", err)
	}

	key := deriveKey(password, salt, keystore.Crypto.KDFParams.C)
	if !hmac.Equal(mac, computeMAC(key[16:], ciphertext)) {
		return "", ErrInvalidPassword
	}

	plaintext, err := xorAESCTR(key[:16], ciphertext, iv)
	if err != nil {
		return "", fmt.Errorf("decrypt mnemonic: %w", err)
	}
	return string(plaintext), nil
}

// deriveKey 派生密钥（PBKDF2-HMAC-SHA256）
func deriveKey(password string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, kdfKeyLen, sha256.New)
}

// xorAESCTR AES-CTR 加解密（对称）
func xorAESCTR(key, in, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(in))
	cipher.NewCTR(block, iv).XORKeyStream(out, in)
	return out, nil
}

// computeMAC 计算 MAC
func computeMAC(key, ciphertext []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(ciphertext)
	return mac.Sum(nil)
}
