// cmd/tools/seed-catalog/main.go
//
// Seeds the expo catalog graph: Agents, Actions (with description
// embeddings), Params, pub/sub Topics and MessageSchemas. The workers
// only ever read this graph; this tool is the single writer.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"gias-workers/internal/common/config"
	"gias-workers/internal/common/database"
	"gias-workers/internal/common/logger"
	"gias-workers/internal/kg"
	"gias-workers/internal/llm"
	"gias-workers/internal/llm/providers"
)

type paramDef struct {
	Key      string
	Name     string
	Desc     string
	Type     string
	Required bool
	Enum     []string
	Example  interface{}
}

type actionDef struct {
	Name   string
	Desc   string
	Params []paramDef
}

type agentDef struct {
	ID      string
	Name    string
	Desc    string
	Status  string
	Version string
}

type contractDef struct {
	AgentID   string
	Domain    string
	TimeoutMs int
}

var agents = []agentDef{
	{ID: "nav-agent", Name: "NavigationAgent", Desc: "負責定位、導引、路線規劃、即時導航提示", Status: "active", Version: "1.0.0"},
	{ID: "info-agent", Name: "InfoAgent", Desc: "負責展品介紹、FAQ、活動時程、推薦與人潮資訊", Status: "active", Version: "1.0.0"},
}

var actions = []actionDef{
	{
		Name: "LocateExhibit",
		Desc: "引導訪客前往指定展區或攤位位置",
		Params: []paramDef{
			{Key: "target_type", Name: "目標類型", Desc: "展區/攤位/展品", Type: "enum", Required: true, Enum: []string{"exhibit_zone", "booth", "exhibit"}, Example: "booth"},
			{Key: "target_name", Name: "目標名稱", Desc: "目標的名稱或編號", Type: "string", Required: true, Example: "A12"},
			{Key: "current_location", Name: "目前位置", Desc: "訪客目前所在位置", Type: "string", Example: "入口大廳"},
		},
	},
	{
		Name: "ExplainExhibit",
		Desc: "介紹指定展品或展區的內容與特色",
		Params: []paramDef{
			{Key: "target_type", Name: "目標類型", Desc: "展區/展品", Type: "enum", Required: true, Enum: []string{"exhibit_zone", "exhibit"}, Example: "exhibit"},
			{Key: "target_name", Name: "目標名稱", Desc: "展品/展區名稱或編號", Type: "string", Required: true, Example: "智慧導覽眼鏡"},
			{Key: "language", Name: "語言", Desc: "說明使用的語言", Type: "string", Example: "zh-TW"},
			{Key: "detail_level", Name: "詳盡程度", Desc: "簡短/一般/詳細", Type: "enum", Enum: []string{"brief", "normal", "detailed"}, Example: "normal"},
		},
	},
	{
		Name: "SuggestRoute",
		Desc: "根據訪客位置與需求規劃最佳參觀路線",
		Params: []paramDef{
			{Key: "current_location", Name: "目前位置", Desc: "訪客目前所在位置", Type: "string", Required: true, Example: "入口大廳"},
			{Key: "interests", Name: "興趣偏好", Desc: "訪客偏好的主題/關鍵字", Type: "list[string]", Example: []string{"AI", "教育科技"}},
			{Key: "time_budget_min", Name: "可用時間(分鐘)", Desc: "預計參觀時間", Type: "int", Example: 60},
			{Key: "avoid_crowd", Name: "避開人潮", Desc: "是否優先避開壅擠區", Type: "bool", Example: true},
		},
	},
	{
		Name: "AnswerFAQ",
		Desc: "回答關於會場規則、開放時間與服務設施的常見問題",
		Params: []paramDef{
			{Key: "question", Name: "問題", Desc: "使用者提出的 FAQ 問題", Type: "string", Required: true, Example: "今天幾點閉館？"},
			{Key: "event_date", Name: "日期", Desc: "詢問所指的日期", Type: "string", Example: "2026-02-06"},
			{Key: "language", Name: "語言", Desc: "回覆語言", Type: "string", Example: "zh-TW"},
		},
	},
	{
		Name: "LocateFacility",
		Desc: "協助查找洗手間、出口、服務台或無障礙設施",
		Params: []paramDef{
			{Key: "facility_type", Name: "設施類型", Desc: "要找的設施種類", Type: "enum", Required: true, Enum: []string{"restroom", "exit", "service_desk", "accessible"}, Example: "restroom"},
			{Key: "current_location", Name: "目前位置", Desc: "訪客目前所在位置", Type: "string", Example: "B館中庭"},
		},
	},
	{
		Name: "ProvideSchedule",
		Desc: "提供活動、演講或表演的時間與地點資訊",
		Params: []paramDef{
			{Key: "date", Name: "日期", Desc: "要查詢的日期", Type: "string", Example: "2026-02-06"},
			{Key: "topic", Name: "主題/關鍵字", Desc: "活動主題關鍵字", Type: "string", Example: "LLM"},
			{Key: "venue", Name: "場地", Desc: "指定館別/舞台/會議室", Type: "string", Example: "主舞台"},
		},
	},
	{
		Name: "RecommendExhibits",
		Desc: "根據訪客興趣推薦適合的展區或活動",
		Params: []paramDef{
			{Key: "interests", Name: "興趣偏好", Desc: "偏好主題/關鍵字", Type: "list[string]", Required: true, Example: []string{"智慧製造", "ESG"}},
			{Key: "current_location", Name: "目前位置", Desc: "訪客目前所在位置", Type: "string", Example: "A館入口"},
			{Key: "limit", Name: "推薦數量", Desc: "最多推薦幾個", Type: "int", Example: 5},
		},
	},
	{
		Name: "CrowdStatus",
		Desc: "說明各展區目前的人潮與擁擠狀況",
		Params: []paramDef{
			{Key: "target_area", Name: "區域", Desc: "要查詢人潮的展區/館別", Type: "string", Example: "B館"},
			{Key: "time_window_min", Name: "時間窗(分鐘)", Desc: "近幾分鐘的統計", Type: "int", Example: 15},
		},
	},
	{
		Name: "NavigationAssistance",
		Desc: "在移動過程中即時提供方向與轉彎提示",
		Params: []paramDef{
			{Key: "destination", Name: "目的地", Desc: "要前往的目標名稱/編號", Type: "string", Required: true, Example: "A12"},
			{Key: "current_location", Name: "目前位置", Desc: "目前所在位置", Type: "string", Required: true, Example: "服務台"},
			{Key: "mode", Name: "移動方式", Desc: "步行/無障礙", Type: "enum", Enum: []string{"walk", "accessible"}, Example: "walk"},
		},
	},
	{
		Name: "ExplainDirections",
		Desc: "以自然語言解釋如何從目前位置前往目的地",
		Params: []paramDef{
			{Key: "destination", Name: "目的地", Desc: "目標名稱/編號", Type: "string", Required: true, Example: "主舞台"},
			{Key: "current_location", Name: "目前位置", Desc: "出發點", Type: "string", Example: "入口大廳"},
			{Key: "landmarks", Name: "地標偏好", Desc: "是否用地標輔助描述", Type: "bool", Example: true},
		},
	},
}

// Topic naming rule: gias.expo.<domain>.<action>.<req|resp>.v1
var contracts = map[string]contractDef{
	"LocateExhibit":        {AgentID: "nav-agent", Domain: "nav", TimeoutMs: 8000},
	"SuggestRoute":         {AgentID: "nav-agent", Domain: "nav", TimeoutMs: 12000},
	"NavigationAssistance": {AgentID: "nav-agent", Domain: "nav", TimeoutMs: 15000},
	"ExplainDirections":    {AgentID: "nav-agent", Domain: "nav", TimeoutMs: 8000},

	"ExplainExhibit":    {AgentID: "info-agent", Domain: "info", TimeoutMs: 12000},
	"AnswerFAQ":         {AgentID: "info-agent", Domain: "info", TimeoutMs: 8000},
	"LocateFacility":    {AgentID: "info-agent", Domain: "info", TimeoutMs: 8000},
	"ProvideSchedule":   {AgentID: "info-agent", Domain: "info", TimeoutMs: 8000},
	"RecommendExhibits": {AgentID: "info-agent", Domain: "info", TimeoutMs: 12000},
	"CrowdStatus":       {AgentID: "info-agent", Domain: "info", TimeoutMs: 6000},
}

func topicName(domain, action, kind string) string {
	return fmt.Sprintf("gias.expo.%s.%s.%s.v1", domain, action, kind)
}

// Headers every message carries so clients and dispatchers handle
// correlation, reply routing and language consistently.
func defaultHeaders() []string {
	return []string{"correlation_id", "reply_to", "trace_id", "tenant_id", "lang"}
}

func main() {
	clearFirst := flag.Bool("clear", true, "Delete existing Action/Param/Agent/Topic/MessageSchema nodes first")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall timeout for the seeding run")
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	graph, err := database.NewNeo4j(cfg.Graph, log, nil)
	if err != nil {
		zapLog.Fatal("neo4j init failed", zap.Error(err))
	}
	defer graph.Close(ctx)
	if err := graph.Ping(ctx); err != nil {
		zapLog.Fatal("neo4j unreachable", zap.Error(err))
	}

	provider, err := providers.FromConfig(cfg.LLM)
	if err != nil {
		zapLog.Fatal("llm provider init failed", zap.Error(err))
	}
	llmClient := llm.NewClient(provider, nil, cfg.LLM, log, nil)

	if err := run(ctx, graph, llmClient, *clearFirst, zapLog); err != nil {
		zapLog.Error("seeding failed", zap.Error(err))
		os.Exit(1)
	}
	zapLog.Info("Seeding completed")
}

func run(ctx context.Context, graph *database.Neo4jClient, llmClient *llm.Client, clear bool, log *zap.Logger) error {
	if clear {
		log.Info("Clearing existing catalog nodes")
		for _, label := range []string{"Action", "Param", "Agent", "Topic", "MessageSchema"} {
			if _, err := graph.Write(ctx, fmt.Sprintf("MATCH (n:%s) DETACH DELETE n", label), nil); err != nil {
				return fmt.Errorf("clear %s nodes: %w", label, err)
			}
		}
	}

	log.Info("Seeding agents", zap.Int("count", len(agents)))
	for _, ag := range agents {
		_, err := graph.Write(ctx, `
			MERGE (ag:Agent {id:$id})
			SET ag.name=$name,
			    ag.description=$desc,
			    ag.status=$status,
			    ag.version=$version`,
			map[string]interface{}{
				"id": ag.ID, "name": ag.Name, "desc": ag.Desc,
				"status": ag.Status, "version": ag.Version,
			})
		if err != nil {
			return fmt.Errorf("seed agent %s: %w", ag.ID, err)
		}
	}

	log.Info("Seeding actions with embeddings", zap.Int("count", len(actions)))
	dim := 0
	for _, action := range actions {
		contract, ok := contracts[action.Name]
		if !ok {
			return fmt.Errorf("missing contract for action %q", action.Name)
		}

		embedding, err := llmClient.Embed(ctx, action.Desc)
		if err != nil {
			return fmt.Errorf("embed description of %s: %w", action.Name, err)
		}
		if len(embedding) == 0 {
			return fmt.Errorf("empty embedding for action %q", action.Name)
		}
		if dim == 0 {
			dim = len(embedding)
		} else if len(embedding) != dim {
			return fmt.Errorf("embedding dimension mismatch for %q: expected %d, got %d",
				action.Name, dim, len(embedding))
		}

		if err := seedAction(ctx, graph, action, contract, embedding); err != nil {
			return err
		}

		log.Info("Seeded action",
			zap.String("action", action.Name),
			zap.String("agent", contract.AgentID),
			zap.Int("params", len(action.Params)),
			zap.Int("dim", len(embedding)),
		)
	}

	log.Info("Ensuring vector index", zap.String("index", kg.ActionDescIndex), zap.Int("dimensions", dim))
	if err := graph.EnsureVectorIndex(ctx, kg.ActionDescIndex, "Action", "description_embedding", dim); err != nil {
		return fmt.Errorf("ensure vector index: %w", err)
	}
	return nil
}

func seedAction(ctx context.Context, graph *database.Neo4jClient, action actionDef, contract contractDef, embedding []float64) error {
	requestTopic := topicName(contract.Domain, action.Name, "req")
	responseTopic := topicName(contract.Domain, action.Name, "resp")

	_, err := graph.Write(ctx, `
		MERGE (a:Action {name:$name})
		SET a.description = $desc,
		    a.description_embedding = $emb,
		    a.timeout_ms = $timeout_ms,
		    a.retries = $retries,
		    a.idempotent = $idempotent,
		    a.version = $version
		WITH a
		MATCH (ag:Agent {id:$agent_id})
		MERGE (ag)-[:IMPLEMENTS]->(a)`,
		map[string]interface{}{
			"name": action.Name, "desc": action.Desc, "emb": embedding,
			"timeout_ms": contract.TimeoutMs, "retries": 1,
			"idempotent": false, "version": "v1", "agent_id": contract.AgentID,
		})
	if err != nil {
		return fmt.Errorf("seed action %s: %w", action.Name, err)
	}

	for _, topic := range []string{requestTopic, responseTopic} {
		_, err := graph.Write(ctx, `
			MERGE (t:Topic {name:$tname})
			SET t.transport=$transport,
			    t.scope=$scope,
			    t.version=$tversion,
			    t.pattern=$pattern`,
			map[string]interface{}{
				"tname": topic, "transport": "pubsub", "scope": "expo",
				"tversion": "v1", "pattern": topic,
			})
		if err != nil {
			return fmt.Errorf("seed topic %s: %w", topic, err)
		}
	}

	reqArgs := make(map[string]interface{}, len(action.Params))
	for _, p := range action.Params {
		reqArgs[p.Key] = p.Example
	}
	reqExample, err := json.Marshal(map[string]interface{}{
		"action": action.Name,
		"args":   reqArgs,
		"meta":   map[string]string{"timestamp": "2026-02-08T00:00:00+08:00"},
	})
	if err != nil {
		return fmt.Errorf("marshal request example for %s: %w", action.Name, err)
	}
	respExample, err := json.Marshal(map[string]interface{}{
		"action": action.Name,
		"ok":     true,
		"result": map[string]interface{}{},
		"error":  nil,
	})
	if err != nil {
		return fmt.Errorf("marshal response example for %s: %w", action.Name, err)
	}

	schemas := []struct {
		name    string
		topic   string
		example []byte
	}{
		{action.Name + "Request.v1", requestTopic, reqExample},
		{action.Name + "Response.v1", responseTopic, respExample},
	}
	for _, s := range schemas {
		_, err := graph.Write(ctx, `
			MERGE (s:MessageSchema {name:$sname})
			SET s.content_type=$content_type,
			    s.required_headers=$headers,
			    s.example_json=$example_json,
			    s.version=$sversion
			WITH s
			MATCH (t:Topic {name:$tname})
			MERGE (t)-[:HAS_SCHEMA]->(s)`,
			map[string]interface{}{
				"sname": s.name, "content_type": "application/json",
				"headers": defaultHeaders(), "example_json": string(s.example),
				"sversion": "v1", "tname": s.topic,
			})
		if err != nil {
			return fmt.Errorf("seed schema %s: %w", s.name, err)
		}
	}

	_, err = graph.Write(ctx, `
		MATCH (a:Action {name:$aname})
		MATCH (treq:Topic {name:$req})
		MATCH (tresp:Topic {name:$resp})
		MERGE (a)-[r1:REQUESTS]->(treq)
		SET r1.method="pub",
		    r1.mode="request",
		    r1.timeout_ms=$timeout_ms
		MERGE (a)-[r2:RESPONDS]->(tresp)
		SET r2.method="pub",
		    r2.mode="response"`,
		map[string]interface{}{
			"aname": action.Name, "req": requestTopic, "resp": responseTopic,
			"timeout_ms": contract.TimeoutMs,
		})
	if err != nil {
		return fmt.Errorf("link topics for %s: %w", action.Name, err)
	}

	for i, p := range action.Params {
		var enum interface{}
		if len(p.Enum) > 0 {
			enum = p.Enum
		}
		_, err := graph.Write(ctx, `
			MERGE (p:Param {key:$key})
			SET p.name = $pname,
			    p.description = $pdesc,
			    p.type = $ptype,
			    p.required = $preq,
			    p.enum = $penum,
			    p.example = $pex
			WITH p
			MATCH (a:Action {name:$aname})
			MERGE (a)-[r:HAS_PARAM]->(p)
			SET r.required = $preq,
			    r.order = $order`,
			map[string]interface{}{
				"key": p.Key, "pname": p.Name, "pdesc": p.Desc,
				"ptype": p.Type, "preq": p.Required, "penum": enum,
				"pex": fmt.Sprintf("%v", p.Example), "aname": action.Name,
				"order": i + 1,
			})
		if err != nil {
			return fmt.Errorf("seed param %s of %s: %w", p.Key, action.Name, err)
		}
	}
	return nil
}
