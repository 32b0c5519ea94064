package luna

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	yandexIAMTokenURL   = "https://iam.api.cloud.yandex.net/iam/v1/tokens"
	yandexRecognizeURL  = "https://stt.api.cloud.yandex.net/speech/v1/stt:recognize"
	yandexSynthesizeURL = "https://tts.api.cloud.yandex.net/speech/v1/tts:synthesize"

	// IAM Token 12小时过期, 每小时换一个足够安全
	iamTokenRefreshInterval = time.Hour
)

// yandexSpeech 封装Yandex SpeechKit的语音识别和语音合成
type yandexSpeech struct {
	logger     *zap.Logger
	httpClient *http.Client
	folderID   string
	oauthToken string

	mu       sync.RWMutex
	iamToken string
}

func newYandexSpeech(logger *zap.Logger, folderID string, oauthToken string) *yandexSpeech {
	return &yandexSpeech{
		logger:     logger.Named("YandexSpeech"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		folderID:   folderID,
		oauthToken: oauthToken,
	}
}

// start 先同步拿一次IAM Token, 再起goroutine定期刷新
func (y *yandexSpeech) start(ctx context.Context) error {
	token, err := y.fetchIAMToken(ctx)
	if err != nil {
		return fmt.Errorf("fetch iam token: %w", err)
	}
	y.setToken(token)

	go func() {
		ticker := time.NewTicker(iamTokenRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				token, err := y.fetchIAMToken(ctx)
				if err != nil {
					y.logger.Error("刷新IAM Token失败", zap.Error(err))
					continue
				}
				y.setToken(token)
				y.logger.Debug("IAM Token已刷新")
			}
		}
	}()

	return nil
}

func (y *yandexSpeech) setToken(token string) {
	y.mu.Lock()
	y.iamToken = token
	y.mu.Unlock()
}

func (y *yandexSpeech) token() string {
	y.mu.RLock()
	defer y.mu.RUnlock()
	return y.iamToken
}

func (y *yandexSpeech) fetchIAMToken(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{"yandexPassportOauthToken": y.oauthToken})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, yandexIAMTokenURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("iam token request failed: status %d, body: %s", resp.StatusCode, string(data))
	}

	token := gjson.GetBytes(data, "iamToken").String()
	if token == "" {
		return "", fmt.Errorf("iam token response has no token")
	}
	return token, nil
}

// recognize 语音转文本
// 没识别出内容不算错误, 返回空串; 只有transport层面的问题才返回错误
func (y *yandexSpeech) recognize(ctx context.Context, audio []byte, lang string) (string, error) {
	reqURL := fmt.Sprintf("%s?folderId=%s&lang=%s", yandexRecognizeURL, url.QueryEscape(y.folderID), url.QueryEscape(lang))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+y.token())
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("recognize failed: status %d, body: %s", resp.StatusCode, string(data))
	}

	return gjson.GetBytes(data, "result").String(), nil
}

// synthesize 文本转语音, 返回ogg/opus音频
// 语言和voice不匹配时返回errVoiceNotApplicable, 与普通transport错误区分开
func (y *yandexSpeech) synthesize(ctx context.Context, text string, locale string, profile voiceProfile) ([]byte, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("lang", locale)
	form.Set("voice", profile.voice)
	form.Set("folderId", y.folderID)
	form.Set("format", "oggopus")
	if profile.emotion != "" {
		form.Set("emotion", profile.emotion)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, yandexSynthesizeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+y.token())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		errCode := gjson.GetBytes(data, "error_code").String()
		errMessage := gjson.GetBytes(data, "error_message").String()
		if errCode == "BAD_REQUEST" {
			return nil, fmt.Errorf("%w: voice %q, lang %q: %s", errVoiceNotApplicable, profile.voice, locale, errMessage)
		}
		return nil, fmt.Errorf("synthesize failed: status %d, body: %s", resp.StatusCode, string(data))
	}

	return data, nil
}
