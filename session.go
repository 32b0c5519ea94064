package luna

import (
	"sync"

	"go.uber.org/zap"
)

// userSession 保存单个用户的全部会话状态
// mu 对同一用户的事件做串行化: 处理一条消息或回调期间全程持有,
// 不同用户之间互不阻塞
type userSession struct {
	mu sync.Mutex

	language          string // locale形式, 如 "ru-RU"
	persona           string
	personaExtras     map[string]string
	voiceReplyEnabled bool
	history           []Turn
}

// clearHistory 只清空历史, 其余偏好保留
func (s *userSession) clearHistory() {
	s.history = nil
}

// sessionStore 是内存中的会话仓库, 按用户ID索引
// 对Map本身的并发访问由内部锁保护, 查不到时返回nil而不是错误
type sessionStore struct {
	mu              sync.Mutex
	logger          *zap.Logger
	defaultLanguage string
	sessions        map[int64]*userSession
}

func newSessionStore(logger *zap.Logger, defaultLang string) *sessionStore {
	if defaultLang == "" {
		defaultLang = defaultLanguage
	}
	return &sessionStore{
		logger:          logger.Named("SessionStore"),
		defaultLanguage: defaultLang,
		sessions:        make(map[int64]*userSession),
	}
}

func (st *sessionStore) newDefaultSession() *userSession {
	return &userSession{
		language: st.defaultLanguage,
		persona:  defaultPersona,
		personaExtras: map[string]string{
			extraProgrammingLanguage: defaultProgrammingLanguage,
		},
	}
}

// Get 获取用户会话, 不存在时返回nil
func (st *sessionStore) Get(id int64) *userSession {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.logger.Debug("Get", zap.Int64("UserID", id))
	return st.sessions[id]
}

// Set 写入用户会话
func (st *sessionStore) Set(id int64, session *userSession) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.logger.Debug("Set", zap.Int64("UserID", id))
	st.sessions[id] = session
}

// Has 判断用户会话是否存在
func (st *sessionStore) Has(id int64) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.logger.Debug("Has", zap.Int64("UserID", id))
	_, ok := st.sessions[id]
	return ok
}

// getOrInit 获取用户会话, 不存在时用默认值惰性初始化
func (st *sessionStore) getOrInit(id int64) *userSession {
	st.mu.Lock()
	defer st.mu.Unlock()

	session, ok := st.sessions[id]
	if !ok {
		session = st.newDefaultSession()
		st.sessions[id] = session
		st.logger.Debug("初始化新会话", zap.Int64("UserID", id))
	}
	return session
}
