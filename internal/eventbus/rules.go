package eventbus

import (
	"registration/internal/config"
	"registration/internal/constants"
)

// RulesFromConfig converts the configured rule table. An empty configuration
// falls back to the default registration chain: company bus to the local bus,
// local bus to the provisioning queue.
func RulesFromConfig(cfg config.RoutingConfig) []Rule {
	if len(cfg.Rules) == 0 {
		return DefaultRules()
	}

	rules := make([]Rule, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		targets := make([]Target, 0, len(rc.Targets))
		for _, tc := range rc.Targets {
			targets = append(targets, Target{
				Type: TargetType(tc.Type),
				Name: tc.Name,
			})
		}
		rules = append(rules, Rule{
			ListenBus:  rc.ListenBus,
			Source:     rc.Source,
			DetailType: rc.DetailType,
			Targets:    targets,
		})
	}
	return rules
}

func DefaultRules() []Rule {
	return []Rule{
		{
			ListenBus:  constants.CompanyBus,
			Source:     constants.EventSourceCustomerCreated,
			DetailType: constants.EventDetailTypeRegistration,
			Targets:    []Target{{Type: TargetBus, Name: constants.LocalBus}},
		},
		{
			ListenBus:  constants.LocalBus,
			Source:     constants.EventSourceCustomerCreated,
			DetailType: constants.EventDetailTypeRegistration,
			Targets:    []Target{{Type: TargetQueue, Name: constants.ProvisioningQueue}},
		},
	}
}
