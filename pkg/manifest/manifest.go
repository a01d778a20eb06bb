package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	pkgErrors "github.com/pkg/errors"
	"github.com/staketoken/airdrop/internal/config"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

var ErrNoDeployment = errors.New("No deployed contract found")

var knownNetworkNames = map[string]string{
	"1":  "mainnet",
	"3":  "ropsten",
	"4":  "rinkeby",
	"5":  "goerli",
	"42": "kovan",
}

type ProjectFile struct {
	Path            string `json:"-"`
	Name            string `json:"name"`
	Version         string `json:"version"`
	ManifestVersion string `json:"manifestVersion"`
}

type ProxyRecord struct {
	Address        string `json:"address"`
	Version        string `json:"version"`
	Implementation string `json:"implementation"`
	Admin          string `json:"admin"`
	Kind           string `json:"kind"`
}

// NetworkFile holds the deployments of a project on one network. Proxies keeps the order of
// the file, oldest deployment first within every list.
type NetworkFile struct {
	Path            string                                          `json:"-"`
	ManifestVersion string                                          `json:"manifestVersion"`
	Version         string                                          `json:"version"`
	Proxies         *orderedmap.OrderedMap[string, []*ProxyRecord] `json:"proxies"`
}

type Deployment struct {
	ContractName string
	*ProxyRecord
}

type Manifest struct {
	Project     *ProjectFile
	Network     *NetworkFile
	NetworkName string
}

// NetworkFileName maps a network id onto the name of its manifest file.
func NetworkFileName(networkId string) string {
	if name, ok := knownNetworkNames[networkId]; ok {
		return name
	}
	return fmt.Sprintf("dev-%s", networkId)
}

func ReadProjectFile(path string) (*ProjectFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgErrors.Wrapf(err, "failed to read project file '%s'", path)
	}
	project := &ProjectFile{}
	if err := json.Unmarshal(data, project); err != nil {
		return nil, pkgErrors.Wrapf(err, "failed to parse project file '%s'", path)
	}
	project.Path = path
	return project, nil
}

// ReadNetworkFile reads <project dir>/<networkName>.json. A missing file is an empty manifest.
func ReadNetworkFile(project *ProjectFile, networkName string) (*NetworkFile, error) {
	path := filepath.Join(filepath.Dir(project.Path), fmt.Sprintf("%s.json", networkName))
	networkFile := &NetworkFile{
		Path:    path,
		Proxies: orderedmap.New[string, []*ProxyRecord](),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return networkFile, nil
		}
		return nil, pkgErrors.Wrapf(err, "failed to read network file '%s'", path)
	}
	if err := json.Unmarshal(data, networkFile); err != nil {
		return nil, pkgErrors.Wrapf(err, "failed to parse network file '%s'", path)
	}
	if networkFile.Proxies == nil {
		networkFile.Proxies = orderedmap.New[string, []*ProxyRecord]()
	}
	networkFile.Path = path
	return networkFile, nil
}

func (m *Manifest) fullName(contractName string) string {
	return fmt.Sprintf("%s/%s", m.Project.Name, contractName)
}

// LatestProxy returns the most recent proxy deployed for the contract.
func (m *Manifest) LatestProxy(contractName string) (*ProxyRecord, error) {
	proxies, ok := m.Network.Proxies.Get(m.fullName(contractName))
	if !ok || len(proxies) == 0 {
		return nil, ErrNoDeployment
	}
	return proxies[len(proxies)-1], nil
}

// Proxies lists every proxy of the network file in file order.
func (m *Manifest) Proxies() []*Deployment {
	deployments := make([]*Deployment, 0)
	for pair := m.Network.Proxies.Oldest(); pair != nil; pair = pair.Next() {
		for _, proxy := range pair.Value {
			deployments = append(deployments, &Deployment{
				ContractName: pair.Key,
				ProxyRecord:  proxy,
			})
		}
	}
	return deployments
}

type NetVersioner interface {
	NetVersion(ctx context.Context) (string, error)
}

// Load reads the project file and the network file of the given network. A network accepting
// any id is resolved to the id reported by the node.
func Load(ctx context.Context, projectPath string, network *config.NetworkConfig, versioner NetVersioner) (*Manifest, error) {
	project, err := ReadProjectFile(projectPath)
	if err != nil {
		return nil, err
	}

	networkId := network.NetworkId
	if network.AcceptsAnyNetworkId() {
		networkId, err = versioner.NetVersion(ctx)
		if err != nil {
			return nil, pkgErrors.Wrap(err, "failed to get network version")
		}
	}
	networkName := NetworkFileName(networkId)

	networkFile, err := ReadNetworkFile(project, networkName)
	if err != nil {
		return nil, err
	}
	return &Manifest{
		Project:     project,
		Network:     networkFile,
		NetworkName: networkName,
	}, nil
}

// Resolver finds contract deployments through the manifest of a network.
type Resolver struct {
	projectPath string
	network     *config.NetworkConfig
	versioner   NetVersioner
	logger      *zap.Logger
}

func NewResolver(projectPath string, network *config.NetworkConfig, versioner NetVersioner, l *zap.Logger) *Resolver {
	return &Resolver{
		projectPath: projectPath,
		network:     network,
		versioner:   versioner,
		logger:      l,
	}
}

func (r *Resolver) ResolveContract(ctx context.Context, contractName string) (common.Address, error) {
	m, err := Load(ctx, r.projectPath, r.network, r.versioner)
	if err != nil {
		return common.Address{}, err
	}
	r.logger.Sugar().Debugw("Loaded network manifest",
		zap.String("project", m.Project.Name),
		zap.String("file", m.Network.Path),
	)
	proxy, err := m.LatestProxy(contractName)
	if err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(proxy.Address) {
		return common.Address{}, fmt.Errorf("invalid proxy address '%s' for %s", proxy.Address, m.fullName(contractName))
	}
	return common.HexToAddress(proxy.Address), nil
}
