package assist

import (
	"fmt"
	"strings"

	"vigia/internal/models"
)

// Fixed reply fragments. Kept as constants so callers and tests can rely on
// exact wording.
const (
	MsgAllSystemsNormal = "✅ Todos os sistemas estão operando normalmente. Nenhum problema detectado."
	MsgNoAlerts         = "Nenhum alerta registrado no momento. Está tudo tranquilo por aqui."
	MsgNoData           = "Ainda não recebi dados de monitoramento. Tente novamente em alguns segundos."
)

// Metric thresholds applied by the formatters.
const (
	latencyElevatedMs    = 50
	resourceWarningLevel = 80
)

// defaultRules returns the rule table in priority order. First match wins,
// so broader buckets (problem summary, connectivity) sit above narrower
// ones and the greeting/help/default rules close the cascade.
func defaultRules() []rule {
	return []rule{
		{
			name:     "problem-summary",
			keywords: []string{"problema", "incidente", "errado", "falha", "caiu", "status geral", "visão geral", "visao geral", "resumo", "tudo bem", "tudo certo", "tudo ok"},
			respond:  respondProblemSummary,
		},
		{
			name:     "connectivity",
			keywords: []string{"link", "internet", "conexão", "conexao", "latência", "latencia", "banda", "lento", "lentidão", "lentidao"},
			respond:  respondConnectivity,
		},
		{
			name:     "firewall",
			keywords: []string{"firewall", "segurança", "seguranca", "ameaça", "ameaca", "invasão", "invasao", "bloqueio"},
			respond:  respondFirewall,
		},
		{
			name:     "alerts",
			keywords: []string{"alerta", "aviso", "notificação", "notificacao", "ocorrência", "ocorrencia"},
			respond:  respondAlerts,
		},
		{
			name:     "database",
			keywords: []string{"banco", "database", "bd", "sql", "query", "queries"},
			respond:  respondDatabase,
		},
		{
			name:     "switch",
			keywords: []string{"switch", "rede", "porta", "tráfego", "trafego"},
			respond:  respondSwitch,
		},
		{
			name:     "unit",
			keywords: []string{"unidade", "loja", "filial", "matriz"},
			respond:  respondUnit,
		},
		{
			name:     "greeting",
			keywords: []string{"oi", "olá", "ola", "bom dia", "boa tarde", "boa noite"},
			respond:  respondGreeting,
		},
		{
			name:     "help",
			keywords: []string{"ajuda", "help", "comandos", "o que você pode", "o que voce pode", "pode fazer"},
			respond:  respondHelp,
		},
	}
}

func respondProblemSummary(e *Engine, q query, snap *models.Snapshot) string {
	issues := filterAlerts(snap, func(a models.Alert) bool {
		return a.Severity == models.SeverityCritical || a.Severity == models.SeverityWarning
	})
	if len(issues) == 0 {
		return MsgAllSystemsNormal
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Encontrei %s atenção:\n", plural(len(issues), "1 ponto que merece", fmt.Sprintf("%d pontos que merecem", len(issues))))
	for _, a := range issues {
		fmt.Fprintf(&b, "• [%s] %s\n", severityLabel(a.Severity), a.Message)
		if a.Action != "" {
			fmt.Fprintf(&b, "  → %s\n", a.Action)
		}
	}
	b.WriteString("Quer que eu detalhe algum deles?")
	return b.String()
}

func respondConnectivity(e *Engine, q query, snap *models.Snapshot) string {
	dev, ok := deviceOrNone(snap, models.DeviceInternet)
	if !ok {
		return MsgNoData
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🌐 %s — status %s\n", dev.Name, statusLabel(dev.Status))
	latencyNote := ""
	if dev.LatencyMs > latencyElevatedMs {
		latencyNote = " (elevada)"
	}
	fmt.Fprintf(&b, "• Latência: %dms%s\n", dev.LatencyMs, latencyNote)
	fmt.Fprintf(&b, "• Uso de banda: %d%%\n", dev.BandwidthUsage)
	if related := relatedAlerts(snap, "internet", "link"); len(related) > 0 {
		b.WriteString(alertLines(related))
	} else if dev.LatencyMs <= latencyElevatedMs {
		b.WriteString("Nenhum problema de conectividade detectado.")
	} else {
		b.WriteString("Recomendo acompanhar a latência nos próximos minutos.")
	}
	return b.String()
}

func respondFirewall(e *Engine, q query, snap *models.Snapshot) string {
	dev, ok := deviceOrNone(snap, models.DeviceFirewall)
	if !ok {
		return MsgNoData
	}
	status := dev.Status
	if dev.CPU > resourceWarningLevel || dev.Memory > resourceWarningLevel {
		status = models.StatusWarning
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🛡️ %s — status %s\n", dev.Name, statusLabel(status))
	fmt.Fprintf(&b, "• CPU: %d%%\n", dev.CPU)
	fmt.Fprintf(&b, "• Memória: %d%%\n", dev.Memory)
	fmt.Fprintf(&b, "• Ameaças bloqueadas hoje: %d\n", dev.ThreatsBlocked)
	if related := relatedAlerts(snap, "firewall", "invasão"); len(related) > 0 {
		b.WriteString(alertLines(related))
	} else if status == models.StatusWarning {
		b.WriteString("O consumo de recursos está alto; vale verificar as regras ativas.")
	} else {
		b.WriteString("Nenhuma ameaça ativa no momento.")
	}
	return b.String()
}

func respondAlerts(e *Engine, q query, snap *models.Snapshot) string {
	alerts := filterAlerts(snap, func(models.Alert) bool { return true })
	if len(alerts) == 0 {
		return MsgNoAlerts
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 %s no momento:\n", plural(len(alerts), "1 alerta registrado", fmt.Sprintf("%d alertas registrados", len(alerts))))
	for _, a := range alerts {
		fmt.Fprintf(&b, "• [%s] %s\n", severityLabel(a.Severity), a.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}

func respondDatabase(e *Engine, q query, snap *models.Snapshot) string {
	dev, ok := deviceOrNone(snap, models.DeviceDatabase)
	if !ok {
		return MsgNoData
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🗄️ %s — status %s\n", dev.Name, statusLabel(dev.Status))
	fmt.Fprintf(&b, "• Conexões ativas: %d\n", dev.Connections)
	fmt.Fprintf(&b, "• Queries por segundo: %d\n", dev.QueriesPerSec)
	if dev.Status == models.StatusWarning || dev.Connections > 150 {
		b.WriteString("⚠️ Recomendo verificar o consumo de recursos do servidor de banco de dados.")
	} else if related := relatedAlerts(snap, "database", "banco"); len(related) > 0 {
		b.WriteString(alertLines(related))
	} else {
		b.WriteString("O banco de dados está operando dentro do esperado.")
	}
	return b.String()
}

func respondSwitch(e *Engine, q query, snap *models.Snapshot) string {
	dev, ok := deviceOrNone(snap, models.DeviceSwitch)
	if !ok {
		return MsgNoData
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🔀 %s — status %s\n", dev.Name, statusLabel(dev.Status))
	fmt.Fprintf(&b, "• Portas ativas: %d/48\n", dev.PortsActive)
	fmt.Fprintf(&b, "• Tráfego: %d Mbps\n", dev.TrafficMbps)
	if related := relatedAlerts(snap, "switch", "rede"); len(related) > 0 {
		b.WriteString(alertLines(related))
	} else {
		b.WriteString("A rede está estável.")
	}
	return b.String()
}

func respondUnit(e *Engine, q query, snap *models.Snapshot) string {
	alerts := filterAlerts(snap, func(a models.Alert) bool {
		if a.Unit == "" {
			return false
		}
		return q.hasKeyword(strings.ToLower(a.Unit)) || a.Mentions(q.raw)
	})
	if len(alerts) == 0 {
		// No unit matched by name; fall back to anything tagged with a unit.
		alerts = filterAlerts(snap, func(a models.Alert) bool { return a.Unit != "" })
	}
	if len(alerts) == 0 {
		return "Nenhuma ocorrência registrada nas unidades monitoradas."
	}
	var b strings.Builder
	b.WriteString("🏬 Ocorrências por unidade:\n")
	for _, a := range alerts {
		fmt.Fprintf(&b, "• %s — [%s] %s\n", a.Unit, severityLabel(a.Severity), a.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}

func respondGreeting(e *Engine, q query, snap *models.Snapshot) string {
	return e.pick(
		"Olá! Sou o assistente do seu dashboard. Posso resumir o status da infraestrutura, verificar links, firewall, banco de dados ou alertas. O que você quer saber?",
		"Oi! Estou acompanhando sua infraestrutura em tempo real. Pergunte sobre links, firewall, banco de dados, switches ou alertas.",
		"Olá! Tudo pronto por aqui. Quer um resumo geral ou prefere olhar algum equipamento específico?",
	)
}

func respondHelp(e *Engine, q query, snap *models.Snapshot) string {
	return "Posso ajudar com:\n" +
		"• \"tem algum problema?\" — resumo geral da infraestrutura\n" +
		"• \"como está o link?\" — latência e uso de banda\n" +
		"• \"status do firewall\" — CPU, memória e ameaças bloqueadas\n" +
		"• \"status do banco\" — conexões e queries por segundo\n" +
		"• \"como está a rede?\" — portas e tráfego do switch\n" +
		"• \"alertas\" — tudo que foi registrado recentemente"
}

func (e *Engine) fallback() string {
	return "Não entendi sua pergunta, mas posso ajudar com o status da infraestrutura: " +
		"links de internet, firewall, banco de dados, switches e alertas. " +
		"Experimente perguntar \"tem algum problema?\""
}

// helpers

func deviceOrNone(snap *models.Snapshot, t models.DeviceType) (models.Device, bool) {
	if snap == nil {
		return models.Device{}, false
	}
	return snap.DeviceByType(t)
}

func filterAlerts(snap *models.Snapshot, keep func(models.Alert) bool) []models.Alert {
	if snap == nil {
		return nil
	}
	var out []models.Alert
	for _, a := range snap.Alerts {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func relatedAlerts(snap *models.Snapshot, terms ...string) []models.Alert {
	return filterAlerts(snap, func(a models.Alert) bool {
		for _, term := range terms {
			if a.Mentions(term) {
				return true
			}
		}
		return false
	})
}

func alertLines(alerts []models.Alert) string {
	var b strings.Builder
	b.WriteString("Alertas relacionados:\n")
	for _, a := range alerts {
		fmt.Fprintf(&b, "• [%s] %s\n", severityLabel(a.Severity), a.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}

func severityLabel(s models.Severity) string {
	switch s {
	case models.SeverityCritical:
		return "CRÍTICO"
	case models.SeverityWarning:
		return "ATENÇÃO"
	case models.SeveritySuccess:
		return "OK"
	default:
		return "INFO"
	}
}

func statusLabel(s models.DeviceStatus) string {
	switch s {
	case models.StatusOnline:
		return "online"
	case models.StatusWarning:
		return "em atenção"
	case models.StatusOffline:
		return "offline"
	case models.StatusDegraded:
		return "degradado"
	default:
		return string(s)
	}
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
